package email

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	"github.com/carebridge/carelog-api/pkg/metrics"
)

// Sender is what the notifier needs from a mailer.
type Sender interface {
	Send(to []string, subject, body string) error
}

// Notifier turns relayed care log events into email notices: family members
// hear about submissions, caregivers hear about invalidations.
type Notifier struct {
	mailer     Sender
	users      repository.UserRepository
	recipients repository.CareRecipientRepository
	metrics    *metrics.Metrics
	logger     zerolog.Logger
}

func NewNotifier(mailer Sender, users repository.UserRepository, recipients repository.CareRecipientRepository, m *metrics.Metrics, logger zerolog.Logger) *Notifier {
	return &Notifier{
		mailer:     mailer,
		users:      users,
		recipients: recipients,
		metrics:    m,
		logger:     logger.With().Str("component", "notifier").Logger(),
	}
}

// Notify handles one relayed outbox event. Events that carry no notice are
// ignored.
func (n *Notifier) Notify(ctx context.Context, eventType string, payload []byte) error {
	var event model.CareLogEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to decode care log event: %w", err)
	}

	switch eventType {
	case model.EventCareLogSubmitted:
		return n.notifyRoles(ctx, &event, "submission",
			[]string{model.RoleFamily, model.RoleFamilyAdmin},
			fmt.Sprintf("Care log for %s submitted", event.LogDate),
			fmt.Sprintf("The daily care log for %s has been submitted and is ready to review.", event.LogDate),
		)
	case model.EventCareLogInvalidated:
		return n.notifyRoles(ctx, &event, "invalidation",
			[]string{model.RoleCaregiver},
			fmt.Sprintf("Care log for %s needs correction", event.LogDate),
			fmt.Sprintf("A family admin has flagged the care log for %s for correction. Please review and re-submit.", event.LogDate),
		)
	default:
		return nil
	}
}

func (n *Notifier) notifyRoles(ctx context.Context, event *model.CareLogEvent, kind string, roles []string, subject, body string) error {
	var addresses []string
	for _, role := range roles {
		users, err := n.users.ListByRecipientAndRole(ctx, event.CareRecipientID, role)
		if err != nil {
			return err
		}
		for _, u := range users {
			addresses = append(addresses, u.Email)
		}
	}

	if err := n.mailer.Send(addresses, subject, body); err != nil {
		n.metrics.NotificationsFailed.WithLabelValues(kind).Inc()
		n.logger.Error().Err(err).Str("kind", kind).Str("care_log_id", event.CareLogID.String()).Msg("notice failed")
		return err
	}

	n.metrics.NotificationsSent.WithLabelValues(kind).Inc()
	return nil
}
