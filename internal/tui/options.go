package tui

import "github.com/Brandtweary/cyberorganism/internal/genius"

type Option func(*Model)

// WithKeyOverrides rebinds the configurable keys.
func WithKeyOverrides(o KeyOverrides) Option {
	return func(m *Model) {
		m.keys = m.keys.applyOverrides(o)
	}
}

// WithBridge attaches the genius feed so ctrl+g has something to open.
func WithBridge(bridge *genius.Bridge) Option {
	return func(m *Model) {
		m.bridge = bridge
	}
}

// WithClipboard replaces the system clipboard writer, used by yank.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.clip = write
		}
	}
}
