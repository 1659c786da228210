// Package dto defines the HTTP request and response shapes.
package dto

// ListResponse is the standard paginated list envelope.
type ListResponse struct {
	Items      []any `json:"items"`
	TotalCount int   `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}
