// Package classify maps raw failure text to error categories and decides
// whether a failed item gets another attempt.
package classify

import (
	"context"
	"errors"
	"strings"

	"github.com/vietddude/digest/internal/core/domain"
)

// Signature is a set of substrings that identify one category.
type Signature struct {
	Category   domain.ErrorCategory
	Indicators []string
}

// DefaultSignatures is checked top to bottom; the first match wins.
// Paywall comes before forbidden because paywalled pages often answer 403.
var DefaultSignatures = []Signature{
	{domain.ErrorPaywall, []string{"paywall", "subscription", "premium", "subscribe to"}},
	{domain.ErrorForbidden, []string{"403", "forbidden", "access denied"}},
	{domain.ErrorTimeout, []string{"timeout", "timed out", "deadline exceeded"}},
	{domain.ErrorRequiresJS, []string{"javascript", "js required", "enable js"}},
	{domain.ErrorNotFound, []string{"404", "not found", "no such host"}},
	{domain.ErrorRateLimited, []string{"429", "rate limit", "too many requests", "quota"}},
}

// Classifier turns failure text into an ErrorCategory.
type Classifier struct {
	signatures []Signature
}

// NewClassifier creates a classifier. Nil signatures selects the defaults.
func NewClassifier(signatures []Signature) *Classifier {
	if signatures == nil {
		signatures = DefaultSignatures
	}
	return &Classifier{signatures: signatures}
}

// Classify returns the first category whose indicators appear in text.
// Unmatched text is UNKNOWN.
func (c *Classifier) Classify(text string) domain.ErrorCategory {
	lower := strings.ToLower(text)
	if lower == "" {
		return domain.ErrorUnknown
	}
	for _, sig := range c.signatures {
		for _, ind := range sig.Indicators {
			if strings.Contains(lower, ind) {
				return sig.Category
			}
		}
	}
	return domain.ErrorUnknown
}

// ClassifyError classifies an error value. Context deadline errors are
// always TIMEOUT regardless of their text.
func (c *Classifier) ClassifyError(err error) domain.ErrorCategory {
	if err == nil {
		return domain.ErrorUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrorTimeout
	}
	return c.Classify(err.Error())
}
