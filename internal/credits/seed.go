package credits

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/2002Bishwajeet/ogbanana/internal/apperr"
	"github.com/2002Bishwajeet/ogbanana/internal/logging"
	"github.com/2002Bishwajeet/ogbanana/internal/model"
)

// UserEvent is the body delivered with a users.* event.
type UserEvent struct {
	Events  []string `json:"events,omitempty"`
	Payload *struct {
		ID string `json:"$id"`
	} `json:"payload,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// SeedResult is the body returned by the seeding hook.
type SeedResult struct {
	Success bool         `json:"success"`
	Ignored bool         `json:"ignored,omitempty"`
	UserID  string       `json:"userId,omitempty"`
	Prefs   *model.Prefs `json:"prefs,omitempty"`
	Message string       `json:"message,omitempty"`
}

// Seeder writes default prefs for newly created accounts.
type Seeder struct {
	ledger Ledger
	logger logging.Logger
}

func NewSeeder(ledger Ledger, logger logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Seeder{ledger: ledger, logger: logger.With(logging.Field{Key: "component", Value: "seeder"})}
}

// IsUserCreateEvent reports whether event has the form users.<id>.create.
func IsUserCreateEvent(event string) bool {
	return strings.HasPrefix(event, "users.") && strings.HasSuffix(event, ".create")
}

// Handle processes one event. Missing headers, bad JSON and missing user
// ids are validation errors; unrelated events are acknowledged and ignored.
func (s *Seeder) Handle(ctx context.Context, event string, body []byte) (SeedResult, error) {
	const op = "seed prefs"
	if event == "" {
		s.logger.Info("missing event header, no preferences updated")
		return SeedResult{}, apperr.New(apperr.KindValidation, op, "Missing event header")
	}
	if !IsUserCreateEvent(event) {
		s.logger.Info("ignoring unrelated event", logging.Field{Key: "event", Value: event})
		return SeedResult{Success: true, Ignored: true, Message: "Ignored event " + event}, nil
	}

	var ev UserEvent
	if len(body) > 0 {
		if err := json.Unmarshal(body, &ev); err != nil {
			return SeedResult{}, apperr.Wrapf(apperr.KindValidation, op, err, "Invalid JSON body")
		}
	}
	userID := ev.UserID
	if ev.Payload != nil && ev.Payload.ID != "" {
		userID = ev.Payload.ID
	}
	if userID == "" {
		return SeedResult{}, apperr.New(apperr.KindValidation, op, "User ID missing from payload")
	}

	return s.Seed(ctx, userID)
}

// Seed merges the default prefs for userID.
func (s *Seeder) Seed(ctx context.Context, userID string) (SeedResult, error) {
	defaults := model.DefaultPrefs()
	if err := s.ledger.MergePrefs(ctx, userID, defaults); err != nil {
		s.logger.Error("could not update prefs", logging.Field{Key: "user_id", Value: userID}, logging.Err(err))
		return SeedResult{}, apperr.Wrap(apperr.KindInternal, "seed prefs", err)
	}
	s.logger.Info("default preferences set", logging.Field{Key: "user_id", Value: userID})
	return SeedResult{Success: true, UserID: userID, Prefs: &defaults}, nil
}
