package domain

import "time"

// CheckpointVersion is the current checkpoint format version.
// Readers accept any checkpoint with the same major version.
const CheckpointVersion = 1

// Counters aggregates processing totals across a run.
type Counters struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Retried   int `json:"retried"`
}

// Checkpoint is a durable snapshot of scheduler state.
type Checkpoint struct {
	Version   int                `json:"version"`
	Sequence  uint64             `json:"sequence"`
	RunID     string             `json:"run_id"`
	CreatedAt time.Time          `json:"created_at"`
	Counters  Counters           `json:"counters"`
	Pending   []*WorkItem        `json:"pending"`
	Results   []ProcessingResult `json:"results"`

	// InFlight holds items that were dispatched but not finalized when the
	// snapshot was taken. They are retried on resume.
	InFlight []*WorkItem `json:"in_flight,omitempty"`
}

// IsCompatible reports whether this build can read the checkpoint.
// Checkpoints written before versioning carry version 0.
func (c *Checkpoint) IsCompatible() bool {
	return c.Version >= 0 && c.Version <= CheckpointVersion
}

// TerminalIDs returns the set of item IDs that already have a result.
func (c *Checkpoint) TerminalIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Results))
	for _, r := range c.Results {
		ids[r.ItemID] = struct{}{}
	}
	return ids
}
