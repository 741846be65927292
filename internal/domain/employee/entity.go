package employee

import "time"

// Employee is the minimal projection this service needs: identity and
// department. Full employee management lives elsewhere.
type Employee struct {
	ID               string
	FullName         string
	DepartmentID     string
	EmploymentStatus string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
