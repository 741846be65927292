package timing

import "context"

// TimingPolicyRepository defines data access for per-department timing
// policies.
type TimingPolicyRepository interface {
	// Upsert creates the department's policy or replaces the existing one.
	Upsert(ctx context.Context, policy TimingPolicy) (TimingPolicy, error)

	// GetByDepartment retrieves the policy for a department.
	GetByDepartment(ctx context.Context, departmentID string) (TimingPolicy, error)

	// List retrieves all policies.
	List(ctx context.Context) ([]TimingPolicy, error)
}

// OfficeLocationRepository defines data access for office geofence centers.
type OfficeLocationRepository interface {
	Create(ctx context.Context, office OfficeLocation) (OfficeLocation, error)
	Update(ctx context.Context, office OfficeLocation) error
	GetByID(ctx context.Context, id string) (OfficeLocation, error)
	List(ctx context.Context) ([]OfficeLocation, error)
	ListActive(ctx context.Context) ([]OfficeLocation, error)
}
