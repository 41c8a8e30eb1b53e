// Package credits gates generation on the user's balance and runs the
// account-level jobs that move it: signup seeding and the periodic reset.
package credits

import (
	"context"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// Ledger stores per-user prefs and the credit balance.
type Ledger interface {
	Credits(ctx context.Context, userID string) (int, error)
	// Decrement removes one credit atomically, floored at zero, and returns
	// the new balance.
	Decrement(ctx context.Context, userID string) (int, error)
	Prefs(ctx context.Context, userID string) (model.Prefs, error)
	// MergePrefs writes defaults without overwriting values already set.
	MergePrefs(ctx context.Context, userID string, defaults model.Prefs) error
	SetCredits(ctx context.Context, userID string, credits, limit int) error
	Users(ctx context.Context) ([]model.User, error)
}

// OutOfCreditsMessage is returned to callers with no credits left.
const OutOfCreditsMessage = "You are out of credits. Please purchase more to continue."

// ErrOutOfCredits is the QuotaExhausted error returned by Gate.Check.
var ErrOutOfCredits = &apperr.Error{Kind: apperr.KindQuotaExhausted, Op: "credit check", Msg: OutOfCreditsMessage}

// Gate rejects requests from users without credits.
type Gate struct {
	ledger Ledger
	logger logging.Logger
}

func NewGate(ledger Ledger, logger logging.Logger) *Gate {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Gate{ledger: ledger, logger: logger}
}

// Check returns the current balance, or ErrOutOfCredits when it is zero or
// below. Unknown users have no credits.
func (g *Gate) Check(ctx context.Context, userID string) (int, error) {
	credits, err := g.ledger.Credits(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "credit check", err)
	}
	if credits <= 0 {
		g.logger.Info("user out of credits", logging.Field{Key: "user_id", Value: userID})
		return 0, ErrOutOfCredits
	}
	return credits, nil
}

// Consume decrements the balance after a successful generation.
func (g *Gate) Consume(ctx context.Context, userID string) (int, error) {
	remaining, err := g.ledger.Decrement(ctx, userID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "credit decrement", err)
	}
	return remaining, nil
}
