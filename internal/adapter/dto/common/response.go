package common

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every failed response
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// MessageResponse carries a bare confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}
