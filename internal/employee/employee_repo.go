package employee

import (
	"context"

	"shop-payroll/internal/scope"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	// FindEligible returns the roster slice a payroll run covers: active
	// employees, plus on_leave and inactive when includeInactive is set.
	// Terminated employees are never eligible.
	FindEligible(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]Employee, error)
	NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindEligible(ctx context.Context, shopID *uuid.UUID, includeInactive bool) ([]Employee, error) {
	statuses := []string{StatusActive}
	if includeInactive {
		statuses = append(statuses, StatusInactive, StatusOnLeave)
	}

	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(scope.Shop(shopID)).
		Where("employment_status IN ?", statuses).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) NamesByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var employees []Employee
	err := r.db.WithContext(ctx).
		Select("id", "full_name").
		Find(&employees, "id IN ?", ids).Error
	if err != nil {
		return nil, err
	}

	for _, e := range employees {
		names[e.ID] = e.FullName
	}
	return names, nil
}
