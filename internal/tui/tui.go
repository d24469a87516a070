// Package tui is the interactive thread browser: a thread list and a thread view where
// entries can be moved with the keyboard or picked up and dropped.
package tui

import (
	"context"
	"log/slog"

	"replytree/internal/logging"
	"replytree/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

type Options struct {
	// ThreadID opens this thread directly; empty starts at the thread list.
	ThreadID string
	// ActorID is recorded on writes. Without one the TUI is read-only.
	ActorID string
	// Glyphs is "unicode" or "ascii".
	Glyphs string
	Log    *slog.Logger
}

func Run(ctx context.Context, st *store.Store, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference(opts.Glyphs)

	m := newAppModel(ctx, st, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		logging.OrDiscard(opts.Log).Error("tui exited", "err", err)
	}
	return err
}
