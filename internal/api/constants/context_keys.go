package constants

// Context keys shared between middleware and handlers
const (
	// ContextKeyRequestID holds the X-Request-ID of the current request
	ContextKeyRequestID = "RequestID"

	// ContextKeyRawBody holds the request body read by PreserveRequestBody
	ContextKeyRawBody = "rawBody"
)
