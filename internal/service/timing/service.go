package timing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/cache"
)

const (
	policyCacheKeyPrefix = "timing_policy:"
	officeCacheKey       = "office_locations"
)

// TimingServiceImpl serves policy and office reads from a short-TTL cache
// in front of postgres. Clock events hit ResolvePolicy and ActiveOffices
// on every call, so those two paths are the ones worth caching; the
// administrative writes invalidate and let the next read repopulate.
type TimingServiceImpl struct {
	timing.TimingPolicyRepository
	timing.OfficeLocationRepository
	cache  *cache.Cache
	logger *slog.Logger
}

func NewTimingService(
	policyRepo timing.TimingPolicyRepository,
	officeRepo timing.OfficeLocationRepository,
	c *cache.Cache,
	logger *slog.Logger,
) timing.TimingService {
	return &TimingServiceImpl{
		TimingPolicyRepository:   policyRepo,
		OfficeLocationRepository: officeRepo,
		cache:                    c,
		logger:                   logger,
	}
}

// ResolvePolicy implements timing.TimingService.
func (s *TimingServiceImpl) ResolvePolicy(ctx context.Context, departmentID string) (timing.TimingPolicy, error) {
	key := policyCacheKeyPrefix + departmentID

	var cached timing.TimingPolicy
	if s.cache != nil {
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("policy cache read failed", slog.Any("error", err))
		}
	}

	policy, err := s.TimingPolicyRepository.GetByDepartment(ctx, departmentID)
	if err != nil {
		return timing.TimingPolicy{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, policy); err != nil {
			s.logger.Warn("policy cache write failed", slog.Any("error", err))
		}
	}

	return policy, nil
}

// ActiveOffices implements timing.TimingService.
func (s *TimingServiceImpl) ActiveOffices(ctx context.Context) ([]timing.OfficeLocation, error) {
	var cached []timing.OfficeLocation
	if s.cache != nil {
		err := s.cache.Get(ctx, officeCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn("office cache read failed", slog.Any("error", err))
		}
	}

	offices, err := s.OfficeLocationRepository.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active offices: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, officeCacheKey, offices); err != nil {
			s.logger.Warn("office cache write failed", slog.Any("error", err))
		}
	}

	return offices, nil
}

// UpsertPolicy implements timing.TimingService.
func (s *TimingServiceImpl) UpsertPolicy(ctx context.Context, req timing.UpsertTimingPolicyRequest) (timing.TimingPolicyResponse, error) {
	if err := req.Validate(); err != nil {
		return timing.TimingPolicyResponse{}, err
	}

	policy := timing.TimingPolicy{
		ID:                       uuid.NewString(),
		DepartmentID:             req.DepartmentID,
		CheckInTime:              req.CheckInTime,
		CheckOutTime:             req.CheckOutTime,
		WorkingHoursPerDay:       req.WorkingHoursPerDay,
		LateThresholdMinutes:     req.LateThresholdMinutes,
		OvertimeThresholdMinutes: req.OvertimeThresholdMinutes,
		WeeklyOffDays:            req.WeeklyOffDays,
		IsFlexibleTiming:         req.IsFlexibleTiming,
		FlexibleWindowMinutes:    req.FlexibleWindowMinutes,
	}

	saved, err := s.TimingPolicyRepository.Upsert(ctx, policy)
	if err != nil {
		return timing.TimingPolicyResponse{}, fmt.Errorf("failed to upsert timing policy: %w", err)
	}

	s.invalidate(ctx, policyCacheKeyPrefix+req.DepartmentID)

	return toPolicyResponse(saved), nil
}

// ListPolicies implements timing.TimingService.
func (s *TimingServiceImpl) ListPolicies(ctx context.Context) ([]timing.TimingPolicyResponse, error) {
	policies, err := s.TimingPolicyRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list timing policies: %w", err)
	}

	responses := make([]timing.TimingPolicyResponse, 0, len(policies))
	for _, p := range policies {
		responses = append(responses, toPolicyResponse(p))
	}
	return responses, nil
}

// CreateOffice implements timing.TimingService.
func (s *TimingServiceImpl) CreateOffice(ctx context.Context, req timing.UpsertOfficeLocationRequest) (timing.OfficeLocationResponse, error) {
	if err := req.Validate(); err != nil {
		return timing.OfficeLocationResponse{}, err
	}

	office := timing.OfficeLocation{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		RadiusMeters: req.RadiusMeters,
		IsActive:     true,
	}
	if req.IsActive != nil {
		office.IsActive = *req.IsActive
	}

	created, err := s.OfficeLocationRepository.Create(ctx, office)
	if err != nil {
		return timing.OfficeLocationResponse{}, fmt.Errorf("failed to create office location: %w", err)
	}

	s.invalidate(ctx, officeCacheKey)

	return toOfficeResponse(created), nil
}

// UpdateOffice implements timing.TimingService.
func (s *TimingServiceImpl) UpdateOffice(ctx context.Context, id string, req timing.UpsertOfficeLocationRequest) (timing.OfficeLocationResponse, error) {
	if err := req.Validate(); err != nil {
		return timing.OfficeLocationResponse{}, err
	}

	office, err := s.OfficeLocationRepository.GetByID(ctx, id)
	if err != nil {
		return timing.OfficeLocationResponse{}, err
	}

	office.Name = req.Name
	office.Latitude = req.Latitude
	office.Longitude = req.Longitude
	office.RadiusMeters = req.RadiusMeters
	if req.IsActive != nil {
		office.IsActive = *req.IsActive
	}

	if err := s.OfficeLocationRepository.Update(ctx, office); err != nil {
		return timing.OfficeLocationResponse{}, fmt.Errorf("failed to update office location: %w", err)
	}

	s.invalidate(ctx, officeCacheKey)

	return toOfficeResponse(office), nil
}

// ListOffices implements timing.TimingService.
func (s *TimingServiceImpl) ListOffices(ctx context.Context) ([]timing.OfficeLocationResponse, error) {
	offices, err := s.OfficeLocationRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list office locations: %w", err)
	}

	responses := make([]timing.OfficeLocationResponse, 0, len(offices))
	for _, o := range offices {
		responses = append(responses, toOfficeResponse(o))
	}
	return responses, nil
}

func (s *TimingServiceImpl) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidation failed", slog.Any("error", err))
	}
}

func toPolicyResponse(p timing.TimingPolicy) timing.TimingPolicyResponse {
	return timing.TimingPolicyResponse{
		ID:                       p.ID,
		DepartmentID:             p.DepartmentID,
		CheckInTime:              p.CheckInTime,
		CheckOutTime:             p.CheckOutTime,
		WorkingHoursPerDay:       p.WorkingHoursPerDay,
		LateThresholdMinutes:     p.LateThresholdMinutes,
		OvertimeThresholdMinutes: p.OvertimeThresholdMinutes,
		WeeklyOffDays:            p.WeeklyOffDays,
		IsFlexibleTiming:         p.IsFlexibleTiming,
		FlexibleWindowMinutes:    p.FlexibleWindowMinutes,
	}
}

func toOfficeResponse(o timing.OfficeLocation) timing.OfficeLocationResponse {
	return timing.OfficeLocationResponse{
		ID:           o.ID,
		Name:         o.Name,
		Latitude:     o.Latitude,
		Longitude:    o.Longitude,
		RadiusMeters: o.RadiusMeters,
		IsActive:     o.IsActive,
	}
}
