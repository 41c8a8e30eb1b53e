package model

import "time"

// Plan is a user's subscription plan.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

const (
	FreeCredits = 5
	ProCredits  = 50
)

// Ceiling is the credit allowance the reset job restores for the plan.
// Anything other than pro gets the free allowance.
func (p Plan) Ceiling() int {
	if p == PlanPro {
		return ProCredits
	}
	return FreeCredits
}

// Prefs is the per-user preference bag consulted by the credit gate.
type Prefs struct {
	Plan    Plan `json:"plan,omitempty"`
	Credits int  `json:"credits"`
	Limit   int  `json:"limit,omitempty"`
}

// DefaultPrefs are written for every new account.
func DefaultPrefs() Prefs {
	return Prefs{Plan: PlanFree, Credits: FreeCredits}
}

// User pairs an id with its prefs.
type User struct {
	ID        string    `json:"id"`
	Prefs     Prefs     `json:"prefs"`
	UpdatedAt time.Time `json:"updatedAt"`
}
