package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/handler/http/response"
)

type TimingHandler interface {
	UpsertPolicy(w http.ResponseWriter, r *http.Request)
	ListPolicies(w http.ResponseWriter, r *http.Request)
	CreateOffice(w http.ResponseWriter, r *http.Request)
	UpdateOffice(w http.ResponseWriter, r *http.Request)
	ListOffices(w http.ResponseWriter, r *http.Request)
}

type timingHandlerImpl struct {
	timingService timing.TimingService
}

func NewTimingHandler(timingService timing.TimingService) TimingHandler {
	return &timingHandlerImpl{
		timingService: timingService,
	}
}

// UpsertPolicy implements TimingHandler.
func (h *timingHandlerImpl) UpsertPolicy(w http.ResponseWriter, r *http.Request) {
	var req timing.UpsertTimingPolicyRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode timing policy request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timingService.UpsertPolicy(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timing policy saved", result)
}

// ListPolicies implements TimingHandler.
func (h *timingHandlerImpl) ListPolicies(w http.ResponseWriter, r *http.Request) {
	results, err := h.timingService.ListPolicies(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// CreateOffice implements TimingHandler.
func (h *timingHandlerImpl) CreateOffice(w http.ResponseWriter, r *http.Request) {
	var req timing.UpsertOfficeLocationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode office location request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timingService.CreateOffice(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Office location created", result)
}

// UpdateOffice implements TimingHandler.
func (h *timingHandlerImpl) UpdateOffice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Office location ID is required", nil)
		return
	}

	var req timing.UpsertOfficeLocationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode office location request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.timingService.UpdateOffice(r.Context(), id, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Office location updated", result)
}

// ListOffices implements TimingHandler.
func (h *timingHandlerImpl) ListOffices(w http.ResponseWriter, r *http.Request) {
	results, err := h.timingService.ListOffices(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}
