package common

// APIResponse is the standard wrapper for all API responses
type APIResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Standard user-facing messages
const (
	MsgMethodNotAllowed = "Method not allowed"
	MsgServerError      = "Server error occurred"
	MsgBadRequest       = "Invalid request"
	MsgTooManyRequests  = "Too many requests. Please try again later."
	MsgPayloadTooLarge  = "Request body too large"
)

// NewSuccessResponse creates a new successful API response
func NewSuccessResponse(message string) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
	}
}

// NewErrorResponse creates a new error API response.
// errors is omitted from the JSON body when empty.
func NewErrorResponse(message string, errors map[string]string) APIResponse {
	if len(errors) == 0 {
		errors = nil
	}
	return APIResponse{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
