package orchestrator

import (
	"sort"
	"strings"
	"time"

	"github.com/vietddude/digest/internal/core/checkpoint"
	"github.com/vietddude/digest/internal/core/domain"
	"github.com/vietddude/digest/internal/infra/ratelimit"
)

// DomainStats aggregates execution outcomes for one source domain.
type DomainStats struct {
	Domain    string                       `json:"domain"`
	Attempts  int                          `json:"attempts"`
	Succeeded int                          `json:"succeeded"`
	Failed    int                          `json:"failed"`
	Errors    map[domain.ErrorCategory]int `json:"errors,omitempty"`
}

// SuccessRate returns succeeded/attempts, or 0 with no attempts.
func (d DomainStats) SuccessRate() float64 {
	if d.Attempts == 0 {
		return 0
	}
	return float64(d.Succeeded) / float64(d.Attempts)
}

func (d *DomainStats) clone() DomainStats {
	c := *d
	if d.Errors != nil {
		c.Errors = make(map[domain.ErrorCategory]int, len(d.Errors))
		for k, v := range d.Errors {
			c.Errors[k] = v
		}
	}
	return c
}

// Stats is a read-only snapshot of scheduler state.
type Stats struct {
	Running        bool                         `json:"running"`
	StartedAt      time.Time                    `json:"started_at,omitempty"`
	Counters       domain.Counters              `json:"counters"`
	Queued         int                          `json:"queued"`
	InFlight       int                          `json:"in_flight"`
	Terminal       int                          `json:"terminal"`
	Errors         map[domain.ErrorCategory]int `json:"errors"`
	States         map[domain.ItemState]int     `json:"states"`
	Domains        []DomainStats                `json:"domains"`
	Priority       PriorityAnalytics            `json:"priority"`
	Providers      []ratelimit.Usage            `json:"providers"`
	LastCheckpoint checkpoint.Info              `json:"last_checkpoint"`
}

// ProblematicDomains returns domains with at least minAttempts attempts and
// at least one failure, worst success rate first.
func (s Stats) ProblematicDomains(minAttempts int) []DomainStats {
	var out []DomainStats
	for _, d := range s.Domains {
		if d.Attempts >= minAttempts && d.Failed > 0 {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].SuccessRate(), out[j].SuccessRate()
		if ri != rj {
			return ri < rj
		}
		return out[i].Attempts > out[j].Attempts
	})
	return out
}

// PriorityAnalytics summarises how the pending backlog was scored.
type PriorityAnalytics struct {
	Pending       int                                `json:"pending"`
	Buckets       map[string]int                     `json:"buckets"`
	Categories    map[domain.ContentCategory]int     `json:"categories"`
	AvgScore      map[domain.ContentCategory]float64 `json:"avg_score_by_category"`
	TopDomains    []Count                            `json:"top_domains,omitempty"`
	CommonReasons []Count                            `json:"common_reasons,omitempty"`
}

// Count is one entry of a frequency table.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

const topN = 10

func analyzePending(items []*domain.WorkItem) PriorityAnalytics {
	a := PriorityAnalytics{
		Pending:    len(items),
		Buckets:    make(map[string]int),
		Categories: make(map[domain.ContentCategory]int),
		AvgScore:   make(map[domain.ContentCategory]float64),
	}
	sums := make(map[domain.ContentCategory]float64)
	hosts := make(map[string]int)
	reasons := make(map[string]int)

	for _, it := range items {
		a.Buckets[it.Bucket.String()]++
		category := it.Category
		if category == "" {
			category = domain.CategoryGeneral
		}
		a.Categories[category]++
		sums[category] += it.Score
		if it.Domain != "" {
			hosts[it.Domain]++
		}
		for _, r := range it.Reasons {
			reasons[reasonName(r)]++
		}
	}
	for category, n := range a.Categories {
		a.AvgScore[category] = sums[category] / float64(n)
	}
	a.TopDomains = topCounts(hosts, topN)
	a.CommonReasons = topCounts(reasons, topN)
	return a
}

// reasonName strips the per-item detail so reasons group by rule, e.g.
// "domain github.com high-value (+10.0)" counts as "domain".
func reasonName(reason string) string {
	if i := strings.IndexByte(reason, ' '); i > 0 {
		return reason[:i]
	}
	return reason
}

func topCounts(m map[string]int, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
