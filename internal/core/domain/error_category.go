package domain

// ErrorCategory classifies why processing an item failed.
type ErrorCategory string

const (
	ErrorPaywall     ErrorCategory = "paywall"
	ErrorForbidden   ErrorCategory = "forbidden"
	ErrorTimeout     ErrorCategory = "timeout"
	ErrorRequiresJS  ErrorCategory = "requires_js"
	ErrorNotFound    ErrorCategory = "not_found"
	ErrorRateLimited ErrorCategory = "rate_limited"
	ErrorUnknown     ErrorCategory = "unknown"
)

// AllErrorCategories lists every category in classification order.
var AllErrorCategories = []ErrorCategory{
	ErrorPaywall,
	ErrorForbidden,
	ErrorTimeout,
	ErrorRequiresJS,
	ErrorNotFound,
	ErrorRateLimited,
	ErrorUnknown,
}

// IsPermanent reports whether retrying can never help.
func (c ErrorCategory) IsPermanent() bool {
	switch c {
	case ErrorPaywall, ErrorForbidden, ErrorNotFound:
		return true
	}
	return false
}

// Valid reports whether c is a known category.
func (c ErrorCategory) Valid() bool {
	for _, known := range AllErrorCategories {
		if c == known {
			return true
		}
	}
	return false
}
