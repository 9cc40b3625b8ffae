// Package match implements the report/subscription tag matching engine.
package match

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"report_bot/internal/model"
)

// ErrInvalidTagID is returned when a stored subscription tag cannot be
// parsed as an integer tag id.
var ErrInvalidTagID = errors.New("invalid tag id")

// Match checks whether a report's tags intersect a subscription's tags.
// A single shared tag id is sufficient. An empty subscription tag list
// never matches: the intersection with anything is empty.
func Match(report model.Report, subTags []int64) bool {
	if len(subTags) == 0 || len(report.Tags) == 0 {
		return false
	}
	want := make(map[int64]struct{}, len(subTags))
	for _, id := range subTags {
		want[id] = struct{}{}
	}
	for _, t := range report.Tags {
		if _, ok := want[t.ID]; ok {
			return true
		}
	}
	return false
}

// ParseTags converts stored tag id strings to integers, preserving
// order. A value that does not parse fails with ErrInvalidTagID; bad
// ids are a validation error at load time, not a silent non-match.
func ParseTags(raw []string) ([]int64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTagID, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
