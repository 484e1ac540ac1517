// Package channel exposes the tutor over the browser widget and Telegram.
package channel

import (
	"context"
	"fmt"
	"sort"

	"github.com/linanwx/tutorbot/agent"
	"github.com/linanwx/tutorbot/api"
	"github.com/linanwx/tutorbot/logger"
)

// Channel is a transport that delivers user messages to the tutor.
type Channel interface {
	// Name returns the channel name (e.g., "web", "telegram").
	Name() string

	// Start begins serving. It must not block.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the channel.
	Stop() error
}

// Tutor answers one user turn. Chat serves in-process chat sessions.
type Tutor interface {
	Answer(ctx context.Context, text, subject string) (*agent.Result, error)
	Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Manager manages multiple channels as a pure registry.
type Manager struct {
	channels map[string]Channel
	started  []Channel
}

// NewManager creates a new channel manager.
func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]Channel),
	}
}

// Register adds a channel to the manager and logs it. Nil is silently ignored.
func (m *Manager) Register(ch Channel) {
	if ch == nil {
		return
	}
	m.channels[ch.Name()] = ch
	logger.Info("channel registered", "channel", ch.Name())
}

// Get returns a channel by name.
func (m *Manager) Get(name string) (Channel, bool) {
	ch, ok := m.channels[name]
	return ch, ok
}

// Names returns registered channel names in sorted order.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StartAll starts all registered channels, web first. If one fails the
// channels already started are stopped again.
func (m *Manager) StartAll(ctx context.Context) error {
	names := m.Names()
	sort.SliceStable(names, func(i, j int) bool {
		return names[i] == "web" && names[j] != "web"
	})
	for _, name := range names {
		if err := m.start(ctx, m.channels[name]); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) start(ctx context.Context, ch Channel) error {
	if err := ch.Start(ctx); err != nil {
		_ = m.StopAll()
		return fmt.Errorf("start %s channel: %w", ch.Name(), err)
	}
	m.started = append(m.started, ch)
	return nil
}

// StopAll stops started channels in reverse order and returns the first
// error.
func (m *Manager) StopAll() error {
	var first error
	for i := len(m.started) - 1; i >= 0; i-- {
		if err := m.started[i].Stop(); err != nil && first == nil {
			first = err
		}
	}
	m.started = nil
	return first
}
