package httpapi

const (
	statusSuccess = "success"
	statusError   = "error"
)

type Response struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ValidationResponse is the 422 body for a rejected lead form.
type ValidationResponse struct {
	Status string            `json:"status"`
	Errors map[string]string `json:"errors"`
}

func SuccessResponse(data any) Response {
	return Response{Status: statusSuccess, Data: data}
}

func ErrorResponseWithDetails(code, details string) ErrorResponse {
	return ErrorResponse{Status: statusError, Error: code, Details: details}
}

const (
	codeInvalidRequest = "invalid_request"
	codeNotFound       = "not_found"
	codeConflict       = "conflict"
	codeInvalidTheme   = "invalid_theme"
	codeUnavailable    = "unavailable"
	codeInternal       = "internal_error"
)
