package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/attendance"
)

// stubAttendanceService returns canned values so handler tests exercise
// decoding, validation and error mapping without a database.
type stubAttendanceService struct {
	checkInResp  attendance.AttendanceResponse
	checkInErr   error
	checkOutErr  error
	listResp     attendance.ListAttendanceResponse
	listFilter   attendance.AttendanceFilter
	updateResp   attendance.AttendanceResponse
	updateErr    error
	lastUpdateID string
}

func (s *stubAttendanceService) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	return s.checkInResp, s.checkInErr
}

func (s *stubAttendanceService) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{}, s.checkOutErr
}

func (s *stubAttendanceService) OvertimeEligibility(ctx context.Context, attendanceID string) (attendance.OvertimeEligibilityResponse, error) {
	return attendance.OvertimeEligibilityResponse{AttendanceID: attendanceID, OvertimeEligible: true, MinutesPastScheduled: 45}, nil
}

func (s *stubAttendanceService) RunAutoCheckoutSweep(ctx context.Context, now time.Time) ([]attendance.Attendance, error) {
	return nil, nil
}

func (s *stubAttendanceService) MarkAbsentees(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func (s *stubAttendanceService) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	return s.listResp, nil
}

func (s *stubAttendanceService) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	s.listFilter = filter
	return s.listResp, nil
}

func (s *stubAttendanceService) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	return attendance.AttendanceResponse{ID: id}, nil
}

func (s *stubAttendanceService) UpdateAttendance(ctx context.Context, req attendance.UpdateAttendanceRequest) (attendance.AttendanceResponse, error) {
	s.lastUpdateID = req.ID
	return s.updateResp, s.updateErr
}

func checkInBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(attendance.CheckInRequest{
		Location: &attendance.Location{Latitude: 12.9716, Longitude: 77.5946},
		PhotoURL: "https://cdn.example.com/proof.jpg",
		Type:     attendance.TypeOffice,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestAttendanceHandler_CheckIn(t *testing.T) {
	t.Run("success returns 201 envelope", func(t *testing.T) {
		svc := &stubAttendanceService{
			checkInResp: attendance.AttendanceResponse{ID: "att-1", Status: string(attendance.StatusPresent)},
		}
		handler := NewAttendanceHandler(svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", checkInBody(t))
		handler.CheckIn(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Success bool                          `json:"success"`
			Data    attendance.AttendanceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "att-1", resp.Data.ID)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		handler := NewAttendanceHandler(&stubAttendanceService{})

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", bytes.NewBufferString("{not json"))
		handler.CheckIn(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing photo fails validation with 422", func(t *testing.T) {
		handler := NewAttendanceHandler(&stubAttendanceService{})

		body, err := json.Marshal(attendance.CheckInRequest{
			Location: &attendance.Location{Latitude: 12.9716, Longitude: 77.5946},
			Type:     attendance.TypeOffice,
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", bytes.NewBuffer(body))
		handler.CheckIn(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("omitted location maps to 400", func(t *testing.T) {
		handler := NewAttendanceHandler(&stubAttendanceService{})

		body := []byte(`{"photo_url":"https://cdn.example.com/proof.jpg","attendance_type":"office"}`)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", bytes.NewBuffer(body))
		handler.CheckIn(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate check-in maps to 409", func(t *testing.T) {
		svc := &stubAttendanceService{checkInErr: attendance.ErrAlreadyCheckedIn}
		handler := NewAttendanceHandler(svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-in", checkInBody(t))
		handler.CheckIn(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAttendanceHandler_CheckOut(t *testing.T) {
	t.Run("no open record maps to 400", func(t *testing.T) {
		svc := &stubAttendanceService{checkOutErr: attendance.ErrNoOpenAttendance}
		handler := NewAttendanceHandler(svc)

		body, err := json.Marshal(attendance.CheckOutRequest{
			Location: &attendance.Location{Latitude: 12.9716, Longitude: 77.5946},
			PhotoURL: "https://cdn.example.com/proof.jpg",
		})
		require.NoError(t, err)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/check-out", bytes.NewBuffer(body))
		handler.CheckOut(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAttendanceHandler_List(t *testing.T) {
	t.Run("parses filters and pagination", func(t *testing.T) {
		svc := &stubAttendanceService{
			listResp: attendance.ListAttendanceResponse{TotalCount: 1, Page: 2, Limit: 5},
		}
		handler := NewAttendanceHandler(svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance?employee_id=emp-1&status=late&page=2&limit=5", nil)
		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, svc.listFilter.EmployeeID)
		assert.Equal(t, "emp-1", *svc.listFilter.EmployeeID)
		require.NotNil(t, svc.listFilter.Status)
		assert.Equal(t, "late", *svc.listFilter.Status)
		assert.Equal(t, 2, svc.listFilter.Page)
		assert.Equal(t, 5, svc.listFilter.Limit)
	})

	t.Run("defaults pagination when absent", func(t *testing.T) {
		svc := &stubAttendanceService{}
		handler := NewAttendanceHandler(svc)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/attendance", nil)
		handler.List(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, svc.listFilter.Page)
		assert.Equal(t, 20, svc.listFilter.Limit)
	})
}

var _ attendance.AttendanceService = (*stubAttendanceService)(nil)
