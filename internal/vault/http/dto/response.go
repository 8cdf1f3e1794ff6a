package dto

// LoginResponse carries the authorize URL the frontend should open.
type LoginResponse struct {
	AuthorizeURL string `json:"authorize_url"`
}

// StatusResponse reports whether a server-verified session exists.
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// MessageResponse is a generic confirmation payload.
type MessageResponse struct {
	Message string `json:"message"`
}
