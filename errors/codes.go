package errors

// ErrorCode is the machine-readable code carried by every AppError
type ErrorCode int32

const (
	ErrorCode_HTTP_OK ErrorCode = 200

	// General
	ErrorCode_INTERNAL          ErrorCode = 1000
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 1001
	ErrorCode_NOT_FOUND         ErrorCode = 1002
	ErrorCode_ALREADY_EXISTS    ErrorCode = 1003
	ErrorCode_PERMISSION_DENIED ErrorCode = 1004
	ErrorCode_UNAUTHENTICATED   ErrorCode = 1005
	ErrorCode_INVALID_PAYLOAD   ErrorCode = 1006
	ErrorCode_CONFLICT          ErrorCode = 1007

	// Auth
	ErrorCode_AUTH_INVALID_TOKEN       ErrorCode = 2000
	ErrorCode_AUTH_TOKEN_EXPIRED       ErrorCode = 2001
	ErrorCode_AUTH_INVALID_CREDENTIALS ErrorCode = 2002
	ErrorCode_AUTH_USER_ALREADY_EXISTS ErrorCode = 2003

	// Team / access
	ErrorCode_ROLE_VIOLATION  ErrorCode = 3000
	ErrorCode_ACCESS_DENIED   ErrorCode = 3001
	ErrorCode_NO_TEAM         ErrorCode = 3002
	ErrorCode_ALREADY_IN_TEAM ErrorCode = 3003

	// Pipeline
	ErrorCode_EXTRACTION_FAILED ErrorCode = 4000
	ErrorCode_QUEUE_FULL        ErrorCode = 4001

	// Integrations
	ErrorCode_TRACKER_UNAUTHORIZED   ErrorCode = 5000
	ErrorCode_TRACKER_REQUEST_FAILED ErrorCode = 5001
	ErrorCode_STORAGE_FAILED         ErrorCode = 5002
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:                  "HTTP_OK",
	ErrorCode_INTERNAL:                 "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:         "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:           "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:        "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:          "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:          "INVALID_PAYLOAD",
	ErrorCode_CONFLICT:                 "CONFLICT",
	ErrorCode_AUTH_INVALID_TOKEN:       "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:       "AUTH_TOKEN_EXPIRED",
	ErrorCode_AUTH_INVALID_CREDENTIALS: "AUTH_INVALID_CREDENTIALS",
	ErrorCode_AUTH_USER_ALREADY_EXISTS: "AUTH_USER_ALREADY_EXISTS",
	ErrorCode_ROLE_VIOLATION:           "ROLE_VIOLATION",
	ErrorCode_ACCESS_DENIED:            "ACCESS_DENIED",
	ErrorCode_NO_TEAM:                  "NO_TEAM",
	ErrorCode_ALREADY_IN_TEAM:          "ALREADY_IN_TEAM",
	ErrorCode_EXTRACTION_FAILED:        "EXTRACTION_FAILED",
	ErrorCode_QUEUE_FULL:               "QUEUE_FULL",
	ErrorCode_TRACKER_UNAUTHORIZED:     "TRACKER_UNAUTHORIZED",
	ErrorCode_TRACKER_REQUEST_FAILED:   "TRACKER_REQUEST_FAILED",
	ErrorCode_STORAGE_FAILED:           "STORAGE_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// MarshalText renders the code by name in JSON bodies
func (c ErrorCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}
