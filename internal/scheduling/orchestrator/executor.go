package orchestrator

import (
	"context"
	"sort"
	"strings"

	"github.com/vietddude/digest/internal/core/domain"
)

// Executor performs the external work for one item: fetching, extracting,
// summarising. Its error text is what the classifier sees.
type Executor interface {
	Execute(ctx context.Context, item *domain.WorkItem) ([]byte, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, item *domain.WorkItem) ([]byte, error)

func (f ExecutorFunc) Execute(ctx context.Context, item *domain.WorkItem) ([]byte, error) {
	return f(ctx, item)
}

// ProviderResolver picks the rate-limit bucket an item is charged against.
type ProviderResolver func(item *domain.WorkItem) string

// StaticResolver sends every item to one provider.
func StaticResolver(provider string) ProviderResolver {
	return func(*domain.WorkItem) string { return provider }
}

// DomainResolver maps host patterns to providers. The longest pattern
// contained in the item's domain wins; unmatched items use fallback.
func DomainResolver(routes map[string]string, fallback string) ProviderResolver {
	patterns := make([]string, 0, len(routes))
	for p := range routes {
		patterns = append(patterns, p)
	}
	sort.Slice(patterns, func(i, j int) bool {
		if len(patterns[i]) != len(patterns[j]) {
			return len(patterns[i]) > len(patterns[j])
		}
		return patterns[i] < patterns[j]
	})

	return func(item *domain.WorkItem) string {
		host := item.Domain
		if host == "" {
			host = domain.HostOf(item.URL)
		}
		for _, p := range patterns {
			if strings.Contains(host, strings.ToLower(p)) {
				return routes[p]
			}
		}
		return fallback
	}
}
