package client

import (
	"fmt"

	"github.com/fmbridge/fmbridge/internal/errors"
)

const (
	// DefaultLimit applies when a request omits the limit.
	DefaultLimit = 10
	// MaxLimit caps a single page.
	MaxLimit = 100
)

// PageRequest is a validated pagination window.
type PageRequest struct {
	Limit  int
	Offset int
}

// NewPageRequest validates a pagination window. A zero limit selects the
// default; anything else outside [1, MaxLimit] or a negative offset is a
// validation error.
func NewPageRequest(limit, offset int) (PageRequest, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 1 || limit > MaxLimit {
		return PageRequest{}, errors.NewValidation("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	if offset < 0 {
		return PageRequest{}, errors.NewValidation("offset", "must not be negative")
	}
	return PageRequest{Limit: limit, Offset: offset}, nil
}

// DefaultPageRequest returns the first page at the default size.
func DefaultPageRequest() PageRequest {
	return PageRequest{Limit: DefaultLimit}
}

// PageResponse describes the window a result set covers. HasMore is nil
// when the backend did not report a total.
type PageResponse struct {
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Total   *int  `json:"total"`
	HasMore *bool `json:"has_more"`
}

// Response pairs the request window with a reported total.
func (p PageRequest) Response(total *int) PageResponse {
	resp := PageResponse{Limit: p.Limit, Offset: p.Offset, Total: total}
	if total != nil {
		hasMore := p.Offset+p.Limit < *total
		resp.HasMore = &hasMore
	}
	return resp
}
