package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidSymbol        ErrorCode = 120

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoPriceData           ErrorCode = 206

	// Trading errors (500-599)
	ErrCodeOrderFailed         ErrorCode = 500
	ErrCodeVenueRejected       ErrorCode = 510
	ErrCodeInsufficientBalance ErrorCode = 511
	ErrCodeNotFound            ErrorCode = 512
	ErrCodeAlreadyTerminal     ErrorCode = 513
	ErrCodeDuplicateOrder      ErrorCode = 514
	ErrCodeInvalidTransition   ErrorCode = 515

	// Feed errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeFeedOutOfOrder        ErrorCode = 710
	ErrCodeFeedParse             ErrorCode = 711
	ErrCodeInvalidProvider       ErrorCode = 704

	// Venue transport errors (900-999)
	ErrCodeRateLimited  ErrorCode = 900
	ErrCodeDisconnected ErrorCode = 901
	ErrCodeTimeout      ErrorCode = 902
)

// Transient reports whether the code belongs to the venue transport category.
func (c ErrorCode) Transient() bool {
	switch c {
	case ErrCodeRateLimited, ErrCodeDisconnected, ErrCodeTimeout:
		return true
	default:
		return false
	}
}

// String returns a short name used in logs and order rejection reasons.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeVenueRejected:
		return "VenueRejected"
	case ErrCodeInsufficientBalance:
		return "InsufficientBalance"
	case ErrCodeNotFound:
		return "NotFound"
	case ErrCodeAlreadyTerminal:
		return "AlreadyTerminal"
	case ErrCodeDuplicateOrder:
		return "DuplicateOrder"
	case ErrCodeRateLimited:
		return "RateLimited"
	case ErrCodeDisconnected:
		return "Disconnected"
	case ErrCodeTimeout:
		return "Timeout"
	case ErrCodeInvalidOrder, ErrCodeInvalidParameter:
		return "InvalidOrder"
	case ErrCodeFeedOutOfOrder:
		return "FeedOutOfOrder"
	case ErrCodeFeedParse:
		return "FeedParse"
	default:
		return "Unknown"
	}
}
