package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidInterval      ErrorCode = 102
	ErrCodeMissingParameter     ErrorCode = 103
	ErrCodeIncompatibleVersion  ErrorCode = 104

	// Data/Resource errors (200-299)
	ErrCodeDataUnavailable ErrorCode = 200
	ErrCodeQueryFailed     ErrorCode = 201
	ErrCodeNoDataFound     ErrorCode = 202

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeParse                 ErrorCode = 701

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800

	// Stream errors (900-999)
	ErrCodeTransport        ErrorCode = 900
	ErrCodeExhaustedRetries ErrorCode = 901
	ErrCodeStreamClosed     ErrorCode = 902
)
