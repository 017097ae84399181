package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/faintpulse/earmark/internal/ui"
	"github.com/urfave/cli/v3"
)

// Label launches the interactive terminal labeling session.
//
// The TUI works entirely against the local catalog; run 'earmark populate'
// first to pull fresh tracks.
func (r *Runner) Label(ctx context.Context, cmd *cli.Command) error {
	store, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	model := ui.NewModel(ctx, store, r.config.Catalog.Market)
	program := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
