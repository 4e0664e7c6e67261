package service

import (
	"errors"

	"github.com/jengzang/quota-backend-go/internal/repository"
)

// ErrInvalidArgument marks caller mistakes (bad dates, window sizes, ...)
var ErrInvalidArgument = errors.New("invalid argument")

// MaxRangeDays bounds how many days one analytics request may cover
const MaxRangeDays = 731

// MaxWindowDays bounds the sliding-window size
const MaxWindowDays = 365

// IsNotFound reports whether err means a missing row
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
