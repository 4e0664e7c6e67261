package repository

import (
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a requested row does not exist for the user
var ErrNotFound = errors.New("not found")

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
