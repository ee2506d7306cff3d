package priority

import "time"

// Weights holds every tunable constant used by the scorer.
// The defaults are empirical; all of them can be overridden from config.
type Weights struct {
	HighValueDomains []string `yaml:"high_value_domains"`
	LowValueDomains  []string `yaml:"low_value_domains"`
	DomainBonus      float64  `yaml:"domain_bonus"`
	DomainPenalty    float64  `yaml:"domain_penalty"`

	ThreadBonus float64 `yaml:"thread_bonus"`

	LengthDivisor     float64 `yaml:"length_divisor"`
	LengthCap         float64 `yaml:"length_cap"`
	EngagementDivisor float64 `yaml:"engagement_divisor"`
	EngagementCap     float64 `yaml:"engagement_cap"`
	RepostWeight      float64 `yaml:"repost_weight"`

	Keywords   map[string]float64 `yaml:"keywords"`
	KeywordCap float64            `yaml:"keyword_cap"`

	SocialMarkerBonus float64 `yaml:"social_marker_bonus"`
	SocialMarkerCap   float64 `yaml:"social_marker_cap"`

	// Recency. Fresh/stale wording in the text and posts newer than
	// RecencyWindow. All bonuses are zero by default.
	FreshIndicators []string      `yaml:"fresh_indicators"`
	StaleIndicators []string      `yaml:"stale_indicators"`
	FreshBonus      float64       `yaml:"fresh_bonus"`
	StalePenalty    float64       `yaml:"stale_penalty"`
	RecencyWindow   time.Duration `yaml:"recency_window"`
	RecencyBonus    float64       `yaml:"recency_bonus"`

	// AuthorPatterns are matched as substrings of the author handle.
	AuthorPatterns []string `yaml:"author_patterns"`
	AuthorBonus    float64  `yaml:"author_bonus"`

	UrgentThreshold float64 `yaml:"urgent_threshold"`
	HighThreshold   float64 `yaml:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold"`

	// RetryDecay multiplies the score each time an item is requeued.
	RetryDecay float64 `yaml:"retry_decay"`
}

// DefaultWeights returns the stock scoring table.
func DefaultWeights() Weights {
	return Weights{
		HighValueDomains: []string{
			"github.com", "gitlab.com", "docs.", "documentation.",
			"arxiv.org", "scholar.google", "research.", "stackoverflow.com",
		},
		LowValueDomains: []string{
			"nytimes.com", "wsj.com", "bloomberg.com", "ft.com",
			"economist.com", "washingtonpost.com",
		},
		DomainBonus:   10,
		DomainPenalty: 5,

		ThreadBonus: 5,

		LengthDivisor:     50,
		LengthCap:         3,
		EngagementDivisor: 100,
		EngagementCap:     5,
		RepostWeight:      2,

		Keywords: map[string]float64{
			"ai": 3, "machine learning": 3, "deep learning": 3,
			"python": 2, "javascript": 2, "golang": 2, "rust": 2,
			"docker": 2, "kubernetes": 2, "aws": 2,
			"tutorial": 3, "guide": 2, "how to": 2,
			"research": 3, "paper": 2, "study": 2,
			"breakthrough": 4, "release": 2, "open source": 2,
		},
		KeywordCap: 10,

		SocialMarkerBonus: 0.5,
		SocialMarkerCap:   2,

		FreshIndicators: []string{"breaking", "urgent", "just released", "new", "today", "now"},
		StaleIndicators: []string{"old", "outdated", "legacy", "deprecated"},
		AuthorPatterns: []string{
			"dev", "engineer", "researcher", "scientist", "founder",
			"cto", "ceo", "tech", "ai", "ml", "data",
		},

		UrgentThreshold: 20,
		HighThreshold:   12,
		MediumThreshold: 6,

		RetryDecay: 0.8,
	}
}

// Merge overlays non-zero fields of o onto w and returns the result.
func (w Weights) Merge(o Weights) Weights {
	if len(o.HighValueDomains) > 0 {
		w.HighValueDomains = o.HighValueDomains
	}
	if len(o.LowValueDomains) > 0 {
		w.LowValueDomains = o.LowValueDomains
	}
	if len(o.Keywords) > 0 {
		w.Keywords = o.Keywords
	}
	if len(o.FreshIndicators) > 0 {
		w.FreshIndicators = o.FreshIndicators
	}
	if len(o.StaleIndicators) > 0 {
		w.StaleIndicators = o.StaleIndicators
	}
	if len(o.AuthorPatterns) > 0 {
		w.AuthorPatterns = o.AuthorPatterns
	}
	if o.RecencyWindow != 0 {
		w.RecencyWindow = o.RecencyWindow
	}
	setIf(&w.DomainBonus, o.DomainBonus)
	setIf(&w.DomainPenalty, o.DomainPenalty)
	setIf(&w.ThreadBonus, o.ThreadBonus)
	setIf(&w.LengthDivisor, o.LengthDivisor)
	setIf(&w.LengthCap, o.LengthCap)
	setIf(&w.EngagementDivisor, o.EngagementDivisor)
	setIf(&w.EngagementCap, o.EngagementCap)
	setIf(&w.RepostWeight, o.RepostWeight)
	setIf(&w.KeywordCap, o.KeywordCap)
	setIf(&w.SocialMarkerBonus, o.SocialMarkerBonus)
	setIf(&w.SocialMarkerCap, o.SocialMarkerCap)
	setIf(&w.FreshBonus, o.FreshBonus)
	setIf(&w.StalePenalty, o.StalePenalty)
	setIf(&w.RecencyBonus, o.RecencyBonus)
	setIf(&w.AuthorBonus, o.AuthorBonus)
	setIf(&w.UrgentThreshold, o.UrgentThreshold)
	setIf(&w.HighThreshold, o.HighThreshold)
	setIf(&w.MediumThreshold, o.MediumThreshold)
	setIf(&w.RetryDecay, o.RetryDecay)
	return w
}

func setIf(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}
