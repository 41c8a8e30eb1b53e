package credits

import (
	"context"
	"fmt"

	"github.com/2002Bishwajeet/ogbanana/internal/logging"
)

// ResetResult is the body returned by the reset job.
type ResetResult struct {
	Success        bool   `json:"success"`
	UsersProcessed int    `json:"usersProcessed"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Resetter restores every user's balance to their plan's ceiling.
type Resetter struct {
	ledger Ledger
	logger logging.Logger
}

func NewResetter(ledger Ledger, logger logging.Logger) *Resetter {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resetter{ledger: ledger, logger: logger.With(logging.Field{Key: "component", Value: "credit-reset"})}
}

// Run sets credits and limit to the plan ceiling for every user. Unused
// credits are not carried over. A failure for one user is logged and the
// rest are still processed; only a failure to list users fails the run.
func (r *Resetter) Run(ctx context.Context) (ResetResult, error) {
	users, err := r.ledger.Users(ctx)
	if err != nil {
		r.logger.Error("could not list users", logging.Err(err))
		return ResetResult{Success: false, Error: err.Error()}, fmt.Errorf("list users: %w", err)
	}
	r.logger.Info("fetched users", logging.Field{Key: "count", Value: len(users)})

	processed := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return ResetResult{Success: false, UsersProcessed: processed, Error: err.Error()}, err
		}
		ceiling := u.Prefs.Plan.Ceiling()
		if err := r.ledger.SetCredits(ctx, u.ID, ceiling, ceiling); err != nil {
			r.logger.Error("failed to reset user", logging.Field{Key: "user_id", Value: u.ID}, logging.Err(err))
			continue
		}
		processed++
		r.logger.Debug("reset user",
			logging.Field{Key: "user_id", Value: u.ID},
			logging.Field{Key: "plan", Value: string(u.Prefs.Plan)},
			logging.Field{Key: "credits", Value: ceiling})
	}

	r.logger.Info("credit reset finished", logging.Field{Key: "users_processed", Value: processed})
	return ResetResult{Success: true, UsersProcessed: processed, Message: "Limits reset successfully"}, nil
}
