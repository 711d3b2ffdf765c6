package cli

import (
	"rowbind/internal/rowstore"

	"github.com/spf13/cobra"
)

func newInitCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the config file and the entity/relation tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, relations, err := loadTables(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := rowstore.SaveSQLite(cmd.Context(), app.cfg.DBPath, entities, relations); err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("initialized", "db", app.cfg.DBPath)
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"configDir": app.cfg.Dir,
					"db":        app.cfg.DBPath,
					"entities":  entities.RowCount(),
					"relations": relations.RowCount(),
				},
			})
		},
	}
	return cmd
}

func loadTables(cmd *cobra.Command, app *App) (*rowstore.Table, *rowstore.Table, error) {
	ctx := cmd.Context()
	entities, err := rowstore.LoadOrCreate(ctx, app.cfg.DBPath, rowstore.EntitiesTable, rowstore.NewEntityTable)
	if err != nil {
		return nil, nil, err
	}
	relations, err := rowstore.LoadOrCreate(ctx, app.cfg.DBPath, rowstore.RelationsTable, rowstore.NewRelationTable)
	if err != nil {
		return nil, nil, err
	}
	return entities, relations, nil
}
