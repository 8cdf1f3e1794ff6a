// Package dto provides data transfer objects for the feed HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/tabvault/internal/validation"
)

// GetFeedRequest carries the feed URL and the cache-bypass flag.
type GetFeedRequest struct {
	URL     string `form:"url"`
	Refresh bool   `form:"refresh"`
}

// Validate checks that the feed URL is present and absolute.
func (r *GetFeedRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.URL, validation.Required, customValidation.HTTPURL),
	)
}

// InvalidateFeedRequest carries an optional feed URL; when absent the whole
// cache is cleared.
type InvalidateFeedRequest struct {
	URL string `form:"url"`
}

// Validate checks that the URL, when present, is absolute.
func (r *InvalidateFeedRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.URL, customValidation.HTTPURL),
	)
}
