package campaign

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the campaign lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
)

const (
	DefaultMaxInfluencers = 1
	MinInfluencers        = 1
	MaxInfluencersLimit   = 3
)

// Campaign is the subset of a brand campaign the settlement pipeline reads and writes.
type Campaign struct {
	ID                    uuid.UUID  `json:"id"`
	BrandID               uuid.UUID  `json:"brandId"`
	Title                 string     `json:"title"`
	Category              string     `json:"category,omitempty"`
	BudgetMin             float64    `json:"budgetMin"`
	BudgetMax             float64    `json:"budgetMax"`
	Status                Status     `json:"status"`
	ReviewEnabled         bool       `json:"reviewEnabled"`
	InfluencerCompleted   bool       `json:"influencerCompleted"`
	InfluencerCompletedAt *time.Time `json:"influencerCompletedAt,omitempty"`
	MaxInfluencers        int        `json:"maxInfluencers"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// RequiredCompletions is the number of influencer completions needed, clamped to 1..3.
func (c *Campaign) RequiredCompletions() int {
	n := c.MaxInfluencers
	if n < MinInfluencers {
		return DefaultMaxInfluencers
	}
	if n > MaxInfluencersLimit {
		return MaxInfluencersLimit
	}
	return n
}

// AdminSettable reports whether s may be set through the admin status endpoint.
func AdminSettable(s Status) bool {
	switch s {
	case StatusPending, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// SetStatus applies a status and keeps reviewEnabled in step with it.
func (c *Campaign) SetStatus(s Status, now time.Time) {
	c.Status = s
	c.ReviewEnabled = s == StatusCompleted
	c.UpdatedAt = now
}

// MarkInfluencersDone records that the completion threshold was reached.
func (c *Campaign) MarkInfluencersDone(now time.Time) {
	c.InfluencerCompleted = true
	c.InfluencerCompletedAt = &now
	c.UpdatedAt = now
}

// ClearInfluencersDone reopens the campaign for completion marking.
func (c *Campaign) ClearInfluencersDone(now time.Time) {
	c.InfluencerCompleted = false
	c.InfluencerCompletedAt = nil
	c.UpdatedAt = now
}

// StatusChange is a conditional status write.
type StatusChange struct {
	CampaignID uuid.UUID
	From       Status
	To         Status
	// ResetCompletion clears the influencer completion flag in the same write.
	ResetCompletion bool
	At              time.Time
}

// Apply mirrors change onto c.
func (c *Campaign) Apply(change StatusChange) {
	c.SetStatus(change.To, change.At)
	if change.ResetCompletion {
		c.ClearInfluencersDone(change.At)
	}
}
