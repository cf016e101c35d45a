package dto

// Every response carries the success flag; error payloads add error and,
// for validation failures, the per-field map.
type ErrorResponse struct {
	Success          bool              `json:"success"`
	Error            string            `json:"error"`
	ValidationErrors map[string]string `json:"validationErrors,omitempty"`
	RequestID        string            `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func Err(msg string) ErrorResponse {
	return ErrorResponse{Success: false, Error: msg}
}

func OK(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	User    any    `json:"user"`
}

type ContentRejectedResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Reason     string `json:"reason,omitempty"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}
