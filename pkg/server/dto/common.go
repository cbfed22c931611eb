// Package dto defines the request and response shapes of the HTTP API.
package dto

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
