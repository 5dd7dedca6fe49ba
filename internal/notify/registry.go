package notify

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gosuda/crvs/internal/messenger"
)

// ErrDuplicatePlatform is returned when a second messenger claims a platform.
var ErrDuplicatePlatform = errors.New("notify: platform already registered") //nolint:gochecknoglobals // sentinel error

// Registry holds one messenger per platform. Platforms keep the order they
// were registered in, and Notify tries a practitioner's links in that order.
type Registry struct {
	byPlatform map[string]messenger.Messenger
	order      []string
}

func NewRegistry() *Registry {
	return &Registry{byPlatform: make(map[string]messenger.Messenger)}
}

// Register adds m under its own platform name.
func (r *Registry) Register(m messenger.Messenger) error {
	platform := m.Platform()
	if platform == "" {
		return fmt.Errorf("notify.Registry.Register: %T reports no platform", m)
	}
	if _, ok := r.byPlatform[platform]; ok {
		return fmt.Errorf("notify.Registry.Register: %q: %w", platform, ErrDuplicatePlatform)
	}

	r.byPlatform[platform] = m
	r.order = append(r.order, platform)
	return nil
}

func (r *Registry) Get(platform string) (messenger.Messenger, bool) {
	m, ok := r.byPlatform[platform]
	return m, ok
}

// Platforms lists registered platforms, earliest registration first.
func (r *Registry) Platforms() []string {
	return slices.Clone(r.order)
}
