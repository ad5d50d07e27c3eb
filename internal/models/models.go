package models

import "time"

// Stage is a user's position in the onboarding dialog.
type Stage string

const (
	StageNew                  Stage = "new"
	StageAwaitingGoals        Stage = "awaiting_goals"
	StageAwaitingRestrictions Stage = "awaiting_restrictions"
	StageReady                Stage = "ready"
)

// UserProfile represents a bot user identified by phone number.
// A profile reaches StageReady only after both goals and restrictions
// have been explicitly answered (an empty answer counts).
type UserProfile struct {
	UserID        string    `json:"user_id"`
	Name          string    `json:"name,omitempty"`
	Stage         Stage     `json:"stage"`
	Goals         []string  `json:"goals"`
	Restrictions  []string  `json:"restrictions"`
	CartsAnalyzed int       `json:"carts_analyzed"`
	ItemsFlagged  int       `json:"items_flagged"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewUserProfile creates a fresh profile in the initial stage.
func NewUserProfile(userID, name string) *UserProfile {
	return &UserProfile{
		UserID:       userID,
		Name:         name,
		Stage:        StageNew,
		Goals:        []string{},
		Restrictions: []string{},
		CreatedAt:    time.Now(),
	}
}

// Reset clears everything collected from the user and returns the
// profile to the initial stage. Identity fields are kept.
func (p *UserProfile) Reset() {
	p.Stage = StageNew
	p.Goals = []string{}
	p.Restrictions = []string{}
	p.CartsAnalyzed = 0
	p.ItemsFlagged = 0
	p.CreatedAt = time.Now()
}

// Verdict classifies a cart item relative to the user's profile.
type Verdict string

const (
	VerdictGood    Verdict = "good"
	VerdictCaution Verdict = "caution"
	VerdictAvoid   Verdict = "avoid"
)

// Flagged reports whether the item needs the user's attention.
func (v Verdict) Flagged() bool {
	return v == VerdictCaution || v == VerdictAvoid
}

// CartItem is a single item detected in a cart photo.
type CartItem struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Verdict     Verdict `json:"verdict"`
	Reason      string  `json:"reason,omitempty"`
	Alternative string  `json:"alternative,omitempty"`
}

// CartReport is the result of analyzing one cart photo. Items keep
// detection order; Score is 0-10.
type CartReport struct {
	Items   []CartItem `json:"items"`
	Score   int        `json:"score"`
	Summary string     `json:"summary"`
}

// FlaggedCount returns how many items carry a caution or avoid verdict.
func (r *CartReport) FlaggedCount() int {
	n := 0
	for _, item := range r.Items {
		if item.Verdict.Flagged() {
			n++
		}
	}
	return n
}
