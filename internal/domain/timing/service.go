package timing

import "context"

// TimingService exposes policy and office-location reads to the attendance
// engine plus thin administrative writes. Reads go through a short-TTL
// cache; callers must tolerate slightly stale values.
type TimingService interface {
	// ResolvePolicy returns the timing policy for a department, cached.
	ResolvePolicy(ctx context.Context, departmentID string) (TimingPolicy, error)

	// ActiveOffices returns the active geofence centers, cached.
	ActiveOffices(ctx context.Context) ([]OfficeLocation, error)

	UpsertPolicy(ctx context.Context, req UpsertTimingPolicyRequest) (TimingPolicyResponse, error)
	ListPolicies(ctx context.Context) ([]TimingPolicyResponse, error)

	CreateOffice(ctx context.Context, req UpsertOfficeLocationRequest) (OfficeLocationResponse, error)
	UpdateOffice(ctx context.Context, id string, req UpsertOfficeLocationRequest) (OfficeLocationResponse, error)
	ListOffices(ctx context.Context) ([]OfficeLocationResponse, error)
}
