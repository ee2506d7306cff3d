package domain

import (
	"fmt"
	"strings"
)

// PriorityBucket is the coarse urgency class derived from a numeric score.
type PriorityBucket int

const (
	PriorityLow PriorityBucket = iota + 1
	PriorityMedium
	PriorityHigh
	PriorityUrgent
)

var bucketNames = map[PriorityBucket]string{
	PriorityLow:    "LOW",
	PriorityMedium: "MEDIUM",
	PriorityHigh:   "HIGH",
	PriorityUrgent: "URGENT",
}

func (b PriorityBucket) String() string {
	if name, ok := bucketNames[b]; ok {
		return name
	}
	return fmt.Sprintf("PriorityBucket(%d)", int(b))
}

// MarshalText encodes the bucket by name so checkpoints stay readable.
func (b PriorityBucket) MarshalText() ([]byte, error) {
	if b == 0 {
		return []byte{}, nil
	}
	if _, ok := bucketNames[b]; !ok {
		return nil, fmt.Errorf("unknown priority bucket %d", int(b))
	}
	return []byte(b.String()), nil
}

// UnmarshalText decodes a bucket name (case-insensitive).
func (b *PriorityBucket) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*b = 0
		return nil
	}
	parsed, err := ParsePriorityBucket(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParsePriorityBucket parses LOW, MEDIUM, HIGH or URGENT.
func ParsePriorityBucket(s string) (PriorityBucket, error) {
	for b, name := range bucketNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown priority bucket %q", s)
}
