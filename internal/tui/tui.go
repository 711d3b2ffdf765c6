package tui

import (
	"context"
	"fmt"
	"log/slog"

	"rowbind/internal/config"
	"rowbind/internal/index"
	"rowbind/internal/rowstore"

	tea "github.com/charmbracelet/bubbletea"
)

// Run opens the grid on the tables stored at cfg.DBPath and saves them on
// exit when anything changed.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	entities, err := rowstore.LoadOrCreate(ctx, cfg.DBPath, rowstore.EntitiesTable, rowstore.NewEntityTable)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	relations, err := rowstore.LoadOrCreate(ctx, cfg.DBPath, rowstore.RelationsTable, rowstore.NewRelationTable)
	if err != nil {
		return fmt.Errorf("load relations: %w", err)
	}
	mode, err := index.ParseSearchMode(cfg.SearchMode)
	if err != nil {
		return err
	}

	m, err := newAppModel(entities, relations, appOptions{
		DBPath:     cfg.DBPath,
		Logger:     log,
		SearchMode: mode,
		Decorator:  decoratorFromTheme(cfg.Theme),
	})
	if err != nil {
		return err
	}
	log.Info("tui start", "db", cfg.DBPath, "rows", entities.RowCount())

	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	fm, ok := final.(appModel)
	if !ok {
		return nil
	}
	if fm.st.fatal != nil {
		return fm.st.fatal
	}
	if fm.st.dirty {
		if err := fm.save(); err != nil {
			return fmt.Errorf("save on exit: %w", err)
		}
		log.Info("tui saved", "db", cfg.DBPath)
	}
	return nil
}
