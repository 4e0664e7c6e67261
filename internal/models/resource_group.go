package models

import "time"

// ResourceGroup is a named category of time allocation owned by a user
type ResourceGroup struct {
	ID              int64    `json:"id" db:"id"`
	UserID          int64    `json:"user_id" db:"user_id"`
	Name            string   `json:"name" db:"name"`
	PercentageLimit *float64 `json:"percentage_limit,omitempty" db:"percentage_limit"` // 0-100, nil = no quota

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Limit returns the quota ceiling, 0 when unset
func (g ResourceGroup) Limit() float64 {
	if g.PercentageLimit == nil {
		return 0
	}
	return *g.PercentageLimit
}
