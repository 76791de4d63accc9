package models

// Response is the envelope of every API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// ErrorResponse builds a failed envelope.
func ErrorResponse(message string, details ...string) Response {
	return Response{Success: false, Message: message, Errors: details}
}
