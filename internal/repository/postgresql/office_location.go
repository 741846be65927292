package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bizdesk/bizdesk-backend-go/internal/domain/timing"
	"github.com/bizdesk/bizdesk-backend-go/internal/pkg/database"
)

type officeLocationRepository struct {
	db *database.DB
}

func NewOfficeLocationRepository(db *database.DB) timing.OfficeLocationRepository {
	return &officeLocationRepository{db: db}
}

// Create implements timing.OfficeLocationRepository.
func (r *officeLocationRepository) Create(ctx context.Context, office timing.OfficeLocation) (timing.OfficeLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO office_locations (id, name, latitude, longitude, radius_meters, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		office.ID, office.Name, office.Latitude, office.Longitude, office.RadiusMeters, office.IsActive,
	).Scan(&office.CreatedAt, &office.UpdatedAt)
	if err != nil {
		return timing.OfficeLocation{}, fmt.Errorf("failed to create office location: %w", err)
	}

	return office, nil
}

// Update implements timing.OfficeLocationRepository.
func (r *officeLocationRepository) Update(ctx context.Context, office timing.OfficeLocation) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE office_locations SET
			name = $2,
			latitude = $3,
			longitude = $4,
			radius_meters = $5,
			is_active = $6,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query,
		office.ID, office.Name, office.Latitude, office.Longitude, office.RadiusMeters, office.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to update office location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return timing.ErrOfficeNotFound
	}

	return nil
}

// GetByID implements timing.OfficeLocationRepository.
func (r *officeLocationRepository) GetByID(ctx context.Context, id string) (timing.OfficeLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, latitude, longitude, radius_meters, is_active, created_at, updated_at
		FROM office_locations
		WHERE id = $1
	`

	var office timing.OfficeLocation
	err := q.QueryRow(ctx, query, id).Scan(
		&office.ID, &office.Name, &office.Latitude, &office.Longitude,
		&office.RadiusMeters, &office.IsActive, &office.CreatedAt, &office.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timing.OfficeLocation{}, timing.ErrOfficeNotFound
		}
		return timing.OfficeLocation{}, fmt.Errorf("failed to get office location: %w", err)
	}

	return office, nil
}

// List implements timing.OfficeLocationRepository.
func (r *officeLocationRepository) List(ctx context.Context) ([]timing.OfficeLocation, error) {
	return r.list(ctx, false)
}

// ListActive implements timing.OfficeLocationRepository.
func (r *officeLocationRepository) ListActive(ctx context.Context) ([]timing.OfficeLocation, error) {
	return r.list(ctx, true)
}

func (r *officeLocationRepository) list(ctx context.Context, activeOnly bool) ([]timing.OfficeLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, latitude, longitude, radius_meters, is_active, created_at, updated_at
		FROM office_locations
	`
	if activeOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY name"

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list office locations: %w", err)
	}
	defer rows.Close()

	var out []timing.OfficeLocation
	for rows.Next() {
		var office timing.OfficeLocation
		if err := rows.Scan(
			&office.ID, &office.Name, &office.Latitude, &office.Longitude,
			&office.RadiusMeters, &office.IsActive, &office.CreatedAt, &office.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan office location: %w", err)
		}
		out = append(out, office)
	}

	return out, rows.Err()
}
