// Package priority scores pending work items.
//
// A score is the sum of independent, individually capped factors:
//
//	domain reputation   +DomainBonus / -DomainPenalty
//	thread indicator    +ThreadBonus
//	engagement          min(LengthCap, len/LengthDivisor) + min(EngagementCap, (likes+2*reposts)/100)
//	keywords            sum of matched weights, capped at KeywordCap
//	social markers      SocialMarkerBonus per hashtag/mention, capped at SocialMarkerCap
//	recency             +FreshBonus / -StalePenalty for wording, +RecencyBonus within RecencyWindow
//	author              +AuthorBonus when the handle matches AuthorPatterns
//
// Recency and author weights are zero by default, so they only count once
// configured.
//
// Every factor that contributes is recorded as a Factor, in the order above,
// so the score can be re-derived from the assessment alone.
package priority

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vietddude/digest/internal/core/domain"
)

var (
	threadPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d+/\d+`),
		regexp.MustCompile(`🧵`),
		regexp.MustCompile(`(?i)\bthread\b`),
		regexp.MustCompile(`(?i)\bpart \d+`),
		regexp.MustCompile(`(?m)^\s*1\)`),
	}
	continuationSuffixes = []string{"...", "…", "→", "➡️"}

	socialMarker = regexp.MustCompile(`(?:^|\s)[#@][\p{L}\p{N}_]+`)
)

// Factor is one rule that contributed to a score.
type Factor struct {
	Name   string  `json:"name"`
	Detail string  `json:"detail,omitempty"`
	Points float64 `json:"points"`
}

// Reason renders the factor as a human-readable string.
func (f Factor) Reason() string {
	if f.Detail == "" {
		return fmt.Sprintf("%s (%+.1f)", f.Name, f.Points)
	}
	return fmt.Sprintf("%s %s (%+.1f)", f.Name, f.Detail, f.Points)
}

// Assessment is the scorer output for one item.
type Assessment struct {
	Bucket   domain.PriorityBucket
	Score    float64
	Factors  []Factor
	Category domain.ContentCategory
}

// Reasons returns the factor descriptions in scoring order.
func (a Assessment) Reasons() []string {
	reasons := make([]string, 0, len(a.Factors))
	for _, f := range a.Factors {
		reasons = append(reasons, f.Reason())
	}
	return reasons
}

// Scorer assigns priority to work items. It is safe for concurrent use.
type Scorer struct {
	weights  Weights
	keywords []keywordRule
	fresh    *regexp.Regexp
	stale    *regexp.Regexp
	now      func() time.Time
}

type keywordRule struct {
	word   string
	weight float64
	re     *regexp.Regexp
}

// NewScorer creates a scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	s := &Scorer{
		weights: w,
		fresh:   wordsPattern(w.FreshIndicators),
		stale:   wordsPattern(w.StaleIndicators),
		now:     time.Now,
	}

	words := make([]string, 0, len(w.Keywords))
	for word := range w.Keywords {
		words = append(words, word)
	}
	sort.Strings(words)

	for _, word := range words {
		s.keywords = append(s.keywords, keywordRule{
			word:   word,
			weight: w.Keywords[word],
			re:     regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`),
		})
	}
	return s
}

// Weights returns the scorer configuration.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score computes the assessment for an item without modifying it.
func (s *Scorer) Score(item *domain.WorkItem) Assessment {
	var factors []Factor

	host := item.Domain
	if host == "" {
		host = domain.HostOf(item.URL)
	}

	// 1. Domain reputation
	if host != "" {
		if matchesAny(host, s.weights.HighValueDomains) {
			factors = append(factors, Factor{"domain", host + " high-value", s.weights.DomainBonus})
		} else if matchesAny(host, s.weights.LowValueDomains) {
			factors = append(factors, Factor{"domain", host + " low-value", -s.weights.DomainPenalty})
		}
	}

	// 2. Thread indicator
	if IsThread(item.Text) {
		factors = append(factors, Factor{"thread", "", s.weights.ThreadBonus})
	}

	// 3. Engagement: text length plus social metrics
	if s.weights.LengthDivisor > 0 {
		length := float64(len([]rune(item.Text))) / s.weights.LengthDivisor
		if pts := round1(math.Min(s.weights.LengthCap, length)); pts > 0 {
			factors = append(factors, Factor{"length", fmt.Sprintf("%d chars", len([]rune(item.Text))), pts})
		}
	}
	if e := item.Engagement; e != nil && s.weights.EngagementDivisor > 0 {
		raw := (float64(e.Likes) + s.weights.RepostWeight*float64(e.Reposts)) / s.weights.EngagementDivisor
		if pts := round1(math.Min(s.weights.EngagementCap, raw)); pts > 0 {
			factors = append(factors, Factor{
				"engagement",
				fmt.Sprintf("%d likes %d reposts", e.Likes, e.Reposts),
				pts,
			})
		}
	}

	// 4. Keywords
	var matched []string
	var kw float64
	for _, rule := range s.keywords {
		if rule.re.MatchString(item.Text) {
			matched = append(matched, rule.word)
			kw += rule.weight
		}
	}
	if kw > 0 {
		factors = append(factors, Factor{
			"keywords",
			strings.Join(matched, ", "),
			round1(math.Min(s.weights.KeywordCap, kw)),
		})
	}

	// 5. Social markers
	if n := len(socialMarker.FindAllString(item.Text, -1)); n > 0 {
		pts := round1(math.Min(s.weights.SocialMarkerCap, float64(n)*s.weights.SocialMarkerBonus))
		if pts > 0 {
			factors = append(factors, Factor{"social", fmt.Sprintf("%d markers", n), pts})
		}
	}

	// 6. Recency
	factors = append(factors, s.recency(item)...)

	// 7. Author
	if s.weights.AuthorBonus != 0 && item.Author != "" && matchesAny(strings.ToLower(item.Author), s.weights.AuthorPatterns) {
		factors = append(factors, Factor{"author", item.Author, s.weights.AuthorBonus})
	}

	var score float64
	for _, f := range factors {
		score += f.Points
	}
	score = round1(score)

	return Assessment{
		Bucket:   s.BucketFor(score),
		Score:    score,
		Factors:  factors,
		Category: Categorize(host, item.Text),
	}
}

// Apply scores the item and stores the result on it.
func (s *Scorer) Apply(item *domain.WorkItem) Assessment {
	a := s.Score(item)
	item.Score = a.Score
	item.Bucket = a.Bucket
	item.Reasons = a.Reasons()
	item.Category = a.Category
	if item.Domain == "" {
		item.Domain = domain.HostOf(item.URL)
	}
	return a
}

func (s *Scorer) recency(item *domain.WorkItem) []Factor {
	var factors []Factor
	if s.weights.FreshBonus != 0 && s.fresh != nil {
		if m := s.fresh.FindString(item.Text); m != "" {
			factors = append(factors, Factor{"recency", strings.ToLower(m), s.weights.FreshBonus})
		}
	}
	if s.weights.StalePenalty != 0 && s.stale != nil {
		if m := s.stale.FindString(item.Text); m != "" {
			factors = append(factors, Factor{"recency", strings.ToLower(m), -s.weights.StalePenalty})
		}
	}
	if s.weights.RecencyBonus != 0 && s.weights.RecencyWindow > 0 && !item.CreatedAt.IsZero() {
		if age := s.now().Sub(item.CreatedAt); age >= 0 && age <= s.weights.RecencyWindow {
			factors = append(factors, Factor{"recency", "posted " + age.Truncate(time.Minute).String() + " ago", s.weights.RecencyBonus})
		}
	}
	return factors
}

// wordsPattern matches any of words as a whole word, case-insensitively.
func wordsPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// BucketFor maps a numeric score to its bucket.
func (s *Scorer) BucketFor(score float64) domain.PriorityBucket {
	switch {
	case score >= s.weights.UrgentThreshold:
		return domain.PriorityUrgent
	case score >= s.weights.HighThreshold:
		return domain.PriorityHigh
	case score >= s.weights.MediumThreshold:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// Decay returns the score an item carries after a failed attempt.
// Negative scores are left alone so decay never raises priority.
func (s *Scorer) Decay(score float64) float64 {
	if score <= 0 {
		return score
	}
	return score * s.weights.RetryDecay
}

// IsThread reports whether text looks like part of a multi-post thread.
func IsThread(text string) bool {
	for _, re := range threadPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	trimmed := strings.TrimSpace(text)
	for _, suffix := range continuationSuffixes {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}

// Categorize guesses the content category from host and text.
func Categorize(host, text string) domain.ContentCategory {
	host = strings.ToLower(host)
	lower := strings.ToLower(text)

	switch {
	case containsAny(host, "github.com", "gitlab.com"):
		return domain.CategoryCode
	case containsAny(host, "docs.", "documentation.", "readthedocs"):
		return domain.CategoryDocumentation
	case containsAny(host, "arxiv.org", "scholar.google", "research."):
		return domain.CategoryResearch
	case containsAny(host, "youtube.com", "youtu.be", "vimeo.com"):
		return domain.CategoryVideo
	case containsAny(lower, "tutorial", "guide", "how to"):
		return domain.CategoryTutorial
	default:
		return domain.CategoryGeneral
	}
}

func matchesAny(host string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(host, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
