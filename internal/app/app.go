// Package app assembles the engine's services over a store. The binary and
// the end-to-end tests share it so both run the same wiring.
package app

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"

	"github.com/gosuda/crvs/internal/api/ws"
	"github.com/gosuda/crvs/internal/config"
	"github.com/gosuda/crvs/internal/correction"
	"github.com/gosuda/crvs/internal/domain"
	"github.com/gosuda/crvs/internal/events"
	"github.com/gosuda/crvs/internal/history"
	"github.com/gosuda/crvs/internal/indexing"
	crvsslack "github.com/gosuda/crvs/internal/messenger/slack"
	"github.com/gosuda/crvs/internal/messenger/webhook"
	"github.com/gosuda/crvs/internal/metrics"
	"github.com/gosuda/crvs/internal/notify"
	"github.com/gosuda/crvs/internal/practitioner"
	"github.com/gosuda/crvs/internal/server"
)

// Stores is the part of a store the engine is wired from. Both the postgres
// and the in-memory store satisfy it.
type Stores interface {
	Records() domain.RecordRepository
	Tasks() domain.TaskRepository
	Corrections() domain.CorrectionRepository
	Practitioners() domain.PractitionerRepository
}

// Options carries the optional collaborators around the store.
type Options struct {
	// Index receives every committed record. Nil disables indexing.
	Index indexing.SearchIndex
	// Feed backs /ws. Nil disables it.
	Feed   ws.Subscriber
	Checks map[string]server.Pinger
	// Registry collects the engine's metrics. Nil uses a private registry.
	Registry *prometheus.Registry
}

// Messengers builds the notification channels enabled in cfg. Slack is
// registered first, so it is preferred over the webhook.
func Messengers(cfg *config.Config) (*notify.Registry, error) {
	reg := notify.NewRegistry()

	if cfg.Slack.BotToken != "" {
		sm := crvsslack.NewSlackMessenger(slacklib.New(cfg.Slack.BotToken)).WithFooter("Civil registration")
		if err := reg.Register(sm); err != nil {
			return nil, fmt.Errorf("app.Messengers: %w", err)
		}
		log.Info().Msg("Slack notifications enabled")
	}
	if cfg.Notification.WebhookURL != "" {
		wm := webhook.New(cfg.Notification.WebhookURL, cfg.Notification.WebhookToken, cfg.Notification.WebhookTimeout)
		if err := reg.Register(wm); err != nil {
			return nil, fmt.Errorf("app.Messengers: %w", err)
		}
		log.Info().Str("url", cfg.Notification.WebhookURL).Msg("webhook notifications enabled")
	}

	return reg, nil
}

// Deps wires the record log, the correction state machine and their
// supporting services over store.
func Deps(cfg *config.Config, store Stores, opts Options) (server.Deps, error) {
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := metrics.New(registry)

	messengers, err := Messengers(cfg)
	if err != nil {
		return server.Deps{}, err
	}

	resolver := history.NewResolver(store.Tasks())
	stamper := practitioner.NewStamper(store.Practitioners())
	notifier := notify.New(messengers, store.Practitioners())

	records := events.NewService(
		store.Records(),
		store.Tasks(),
		indexing.NewBridge(opts.Index, m),
		stamper,
		events.WithMaxAttempts(cfg.Correction.MaxAttempts),
		events.WithMetrics(m),
	)

	return server.Deps{
		Records:       records,
		History:       resolver,
		Corrections:   correction.NewService(records, resolver, stamper, notifier, m),
		Supporting:    store.Corrections(),
		Practitioners: store.Practitioners(),
		Feed:          opts.Feed,
		Checks:        opts.Checks,
		Gatherer:      registry,
	}, nil
}
