package notify

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/messenger"
)

// ErrPlatformNotFound is returned when a messenger platform is not registered.
var ErrPlatformNotFound = errors.New("notify: platform not found") //nolint:gochecknoglobals // sentinel error

// MessengerRegistry maps platform names to Messenger implementations and
// ranks them by preference.
type MessengerRegistry interface {
	Get(platform string) (messenger.Messenger, bool)
	Platforms() []string
}

// PractitionerDirectory resolves the practitioner to address.
type PractitionerDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Practitioner, error)
}

// Notifier dispatches notifications to practitioners through their linked
// messenger accounts.
type Notifier struct {
	messengers    MessengerRegistry
	practitioners PractitionerDirectory
}

// New creates a new Notifier with the given messenger registry and practitioner directory.
func New(messengers MessengerRegistry, practitioners PractitionerDirectory) *Notifier {
	return &Notifier{
		messengers:    messengers,
		practitioners: practitioners,
	}
}

// NotifyRequester tells the practitioner who requested a correction how it
// was resolved. Delivery failures wrap domain.ErrNotification.
func (n *Notifier) NotifyRequester(ctx context.Context, notice domain.CorrectionNotice) error {
	p, err := n.practitioners.GetByID(ctx, notice.RequesterID)
	if err != nil {
		return fmt.Errorf("notify.Notifier.NotifyRequester: requester %s: %w: %w", notice.RequesterID, domain.ErrNotification, err)
	}

	if err := n.Notify(ctx, p, FormatCorrectionNotice(p.Name, notice)); err != nil {
		return fmt.Errorf("notify.Notifier.NotifyRequester: %w: %w", domain.ErrNotification, err)
	}
	return nil
}

// Notify sends message via the practitioner's first working messenger link.
// Links are tried in the registry's platform order; links on platforms the
// registry does not know come last. Falls back to logging if no links exist.
func (n *Notifier) Notify(ctx context.Context, p *domain.Practitioner, message string) error {
	if len(p.Links) == 0 {
		log.Info().Str("practitioner_id", p.ID.String()).Str("message", message).Msg("notify: no messenger links")
		return nil
	}

	var lastErr error
	for _, link := range n.preferred(p.Links) {
		sendErr := n.NotifyVia(ctx, link.Platform, link.ExternalID, message)
		if sendErr == nil {
			return nil
		}
		lastErr = sendErr
	}

	return fmt.Errorf("notify.Notifier.Notify: all links failed: %w", lastErr)
}

func (n *Notifier) preferred(links []domain.MessengerLink) []domain.MessengerLink {
	platforms := n.messengers.Platforms()
	rank := func(platform string) int {
		if i := slices.Index(platforms, platform); i >= 0 {
			return i
		}
		return len(platforms)
	}

	ordered := slices.Clone(links)
	slices.SortStableFunc(ordered, func(a, b domain.MessengerLink) int {
		return cmp.Compare(rank(a.Platform), rank(b.Platform))
	})
	return ordered
}

// NotifyVia sends a notification using a specific platform and external ID directly.
func (n *Notifier) NotifyVia(ctx context.Context, platform, externalID, message string) error {
	msg, ok := n.messengers.Get(platform)
	if !ok {
		return fmt.Errorf("notify.Notifier.NotifyVia: platform %q: %w", platform, ErrPlatformNotFound)
	}

	if err := msg.SendNotification(ctx, externalID, message); err != nil {
		return fmt.Errorf("notify.Notifier.NotifyVia: send: %w", err)
	}

	return nil
}

// FormatCorrectionNotice renders the message sent to a correction requester.
func FormatCorrectionNotice(name string, notice domain.CorrectionNotice) string {
	tracking := notice.TrackingID
	if tracking == "" {
		tracking = notice.RecordID.String()
	}

	switch notice.Outcome {
	case domain.CorrectionRejected:
		return fmt.Sprintf("Dear %s, your correction request for record %s was rejected. Reason: %s", name, tracking, notice.Reason)
	default:
		return fmt.Sprintf("Dear %s, your correction request for record %s was approved.", name, tracking)
	}
}
