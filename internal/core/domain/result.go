package domain

import (
	"encoding/json"
	"time"
)

// ItemState is the lifecycle state of a work item inside the scheduler.
type ItemState string

const (
	ItemStatePending        ItemState = "pending"
	ItemStateDispatched     ItemState = "dispatched"
	ItemStateSucceeded      ItemState = "succeeded"
	ItemStateRetryPending   ItemState = "retry_pending"
	ItemStateFailedTerminal ItemState = "failed_terminal"
)

// itemTransitions lists the allowed next states for each state.
var itemTransitions = map[ItemState][]ItemState{
	ItemStatePending:      {ItemStateDispatched},
	ItemStateDispatched:   {ItemStateSucceeded, ItemStateRetryPending, ItemStateFailedTerminal},
	ItemStateRetryPending: {ItemStatePending, ItemStateFailedTerminal},
}

// CanTransition checks if an item may move from one state to another.
func CanTransition(from, to ItemState) bool {
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state is final.
func (s ItemState) IsTerminal() bool {
	return s == ItemStateSucceeded || s == ItemStateFailedTerminal
}

// ProcessingResult is the terminal outcome of one work item.
type ProcessingResult struct {
	ItemID        string          `json:"item_id"`
	URL           string          `json:"url,omitempty"`
	Domain        string          `json:"domain,omitempty"`
	Success       bool            `json:"success"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	ErrorCategory ErrorCategory   `json:"error_category,omitempty"`
	Error         string          `json:"error,omitempty"`
	Attempts      int             `json:"attempts"`
	Duration      time.Duration   `json:"duration_ns"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// State returns the terminal state this result represents.
func (r ProcessingResult) State() ItemState {
	if r.Success {
		return ItemStateSucceeded
	}
	return ItemStateFailedTerminal
}
