package service

import (
	"strconv"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListQuery is the raw paging query of a listing: sort is "newest" or
// "oldest" (default), skip and limit are non-negative integers.
type ListQuery struct {
	Sort  string
	Skip  string
	Limit string
}

func (q ListQuery) options() (domain.ListOptions, error) {
	opts := domain.ListOptions{Limit: defaultListLimit}

	switch q.Sort {
	case "", "oldest":
	case "newest":
		opts.Newest = true
	default:
		return opts, apperror.Validation("Invalid sort option %q", q.Sort)
	}

	if q.Skip != "" {
		n, err := strconv.Atoi(q.Skip)
		if err != nil || n < 0 {
			return opts, apperror.Validation("Invalid skip value")
		}
		opts.Skip = n
	}

	if q.Limit != "" {
		n, err := strconv.Atoi(q.Limit)
		if err != nil || n < 1 {
			return opts, apperror.Validation("Invalid limit value")
		}
		opts.Limit = min(n, maxListLimit)
	}

	return opts, nil
}
