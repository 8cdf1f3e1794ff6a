// Package dto provides data transfer objects for the auth HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"
)

// CallbackRequest carries the authorization server's redirect parameters.
type CallbackRequest struct {
	State string `form:"state"`
	Code  string `form:"code"`
}

// Validate checks that the callback carries both redirect parameters.
func (r *CallbackRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.State, validation.Required),
		validation.Field(&r.Code, validation.Required),
	)
}
