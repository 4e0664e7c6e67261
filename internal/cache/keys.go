package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
)

// SlidingWindowKey builds the cache key for a sliding-window response so
// that equivalent parameter sets hash to the same key.
func SlidingWindowKey(userID int64, windowDays int, resourceKey *string, start, end string) string {
	filter := "*"
	if resourceKey != nil {
		filter = strings.TrimSpace(*resourceKey)
	}
	return makeKey(
		"window",
		strconv.FormatInt(userID, 10),
		strconv.Itoa(windowDays),
		filter,
		start,
		end,
	)
}

// OverviewKey builds the cache key for an overview response
func OverviewKey(userID int64, start, end string) string {
	return makeKey("overview", strconv.FormatInt(userID, 10), start, end)
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return parts[0] + ":" + hex.EncodeToString(h[:])
}
