package domain

import (
	"slices"
	"time"
)

// Checkpoint is the durable progress marker of a review run.
// LastCompletedFact only moves forward; failed facts still advance it.
type Checkpoint struct {
	LastCompletedFact int       `json:"last_completed_fact"`
	TotalFacts        int       `json:"total_facts"`
	FactsProcessed    int       `json:"facts_processed"`
	FailedFacts       []int     `json:"failed_facts"`
	StartedAt         time.Time `json:"started_at"`
	LastUpdated       time.Time `json:"last_updated"`
}

// NewCheckpoint creates the initial checkpoint for a catalogue of total facts.
func NewCheckpoint(total int, now time.Time) *Checkpoint {
	return &Checkpoint{
		TotalFacts:  total,
		FailedFacts: []int{},
		StartedAt:   now,
		LastUpdated: now,
	}
}

// Advance records that factNumber has been processed.
func (c *Checkpoint) Advance(factNumber int, success bool, now time.Time) {
	if factNumber > c.LastCompletedFact {
		c.LastCompletedFact = factNumber
	}
	c.FactsProcessed++
	if !success && !c.IsFailed(factNumber) {
		c.FailedFacts = append(c.FailedFacts, factNumber)
	}
	c.LastUpdated = now
}

// ClearFailure removes factNumber from the failure ledger.
// It reports whether the number was present.
func (c *Checkpoint) ClearFailure(factNumber int, now time.Time) bool {
	i := slices.Index(c.FailedFacts, factNumber)
	if i < 0 {
		return false
	}
	c.FailedFacts = slices.Delete(c.FailedFacts, i, i+1)
	c.LastUpdated = now
	return true
}

// IsFailed reports whether factNumber is in the failure ledger.
func (c *Checkpoint) IsFailed(factNumber int) bool {
	return slices.Contains(c.FailedFacts, factNumber)
}

// Pending returns the facts after the cursor in ascending number order.
func (c *Checkpoint) Pending(facts []Fact) []Fact {
	pending := make([]Fact, 0, len(facts))
	for _, f := range facts {
		if f.Number > c.LastCompletedFact {
			pending = append(pending, f)
		}
	}
	slices.SortStableFunc(pending, func(a, b Fact) int { return a.Number - b.Number })
	return pending
}

// Remaining returns how many facts are left according to the totals.
func (c *Checkpoint) Remaining() int {
	if r := c.TotalFacts - c.FactsProcessed; r > 0 {
		return r
	}
	return 0
}
