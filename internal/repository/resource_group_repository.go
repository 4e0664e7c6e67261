package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jengzang/quota-backend-go/internal/models"
)

// ResourceGroupRepository handles database operations for resource groups
type ResourceGroupRepository struct {
	db *sql.DB
}

// NewResourceGroupRepository creates a new resource group repository
func NewResourceGroupRepository(db *sql.DB) *ResourceGroupRepository {
	return &ResourceGroupRepository{db: db}
}

// Create inserts a resource group
func (r *ResourceGroupRepository) Create(ctx context.Context, group *models.ResourceGroup) error {
	var limit interface{}
	if group.PercentageLimit != nil {
		limit = *group.PercentageLimit
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO resource_groups (user_id, name, percentage_limit) VALUES (?, ?, ?)`,
		group.UserID, group.Name, limit,
	)
	if err != nil {
		return fmt.Errorf("failed to create resource group: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	group.ID = id
	return nil
}

// ListByUser returns every resource group owned by the user
func (r *ResourceGroupRepository) ListByUser(ctx context.Context, userID int64) ([]models.ResourceGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, percentage_limit, created_at
		FROM resource_groups
		WHERE user_id = ?
		ORDER BY id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list resource groups: %w", err)
	}
	defer rows.Close()

	var groups []models.ResourceGroup
	for rows.Next() {
		var g models.ResourceGroup
		var limit sql.NullFloat64
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &limit, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource group: %w", err)
		}
		if limit.Valid {
			l := limit.Float64
			g.PercentageLimit = &l
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// GetByID retrieves a resource group owned by the user
func (r *ResourceGroupRepository) GetByID(ctx context.Context, userID, id int64) (*models.ResourceGroup, error) {
	var g models.ResourceGroup
	var limit sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, percentage_limit, created_at
		FROM resource_groups
		WHERE id = ? AND user_id = ?
	`, id, userID).Scan(&g.ID, &g.UserID, &g.Name, &limit, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("resource group %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource group: %w", err)
	}
	if limit.Valid {
		l := limit.Float64
		g.PercentageLimit = &l
	}
	return &g, nil
}
