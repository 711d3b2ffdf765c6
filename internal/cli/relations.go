package cli

import (
	"rowbind/internal/entitysync"
	"rowbind/internal/format"
	"rowbind/internal/model"

	"github.com/spf13/cobra"
)

func newRelationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relations",
		Short: "Look up relations between entities",
	}
	cmd.AddCommand(newRelationsFindCmd(app))
	cmd.AddCommand(newRelationsListCmd(app))
	return cmd
}

func newRelationsFindCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "find <predecessor-id> <successor-id> <FS|SS|FF|SF>",
		Short: "Find the row of one relation",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseRelationType(args[2])
			if err != nil {
				return writeErr(cmd, err)
			}
			_, relations, err := loadTables(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			r, err := entitysync.FindRelationRow(args[0], args[1], typ, relations)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"row": r.Index(), "values": r.Values()},
			})
		},
	}
}

func newRelationsListCmd(app *App) *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List relations, optionally only those touching one entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, relations, err := loadTables(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			g := format.Grid{Headers: []string{"predecessor", "successor", "type"}}
			if entity != "" {
				s := entitysync.New(entities, relations, app.log)
				if _, ok := s.Lookup(entity); !ok {
					return writeErr(cmd, &entitysync.NotFoundError{Kind: "entity", ID: entity})
				}
				for _, rel := range s.RelationsOf(entity) {
					g.Rows = append(g.Rows, []string{rel.PredecessorID, rel.SuccessorID, string(rel.Type)})
				}
				return writeOut(cmd, app, g)
			}
			cols := entitysync.DefaultRelationColumns
			for i := 0; i < relations.RowCount(); i++ {
				r := relations.Row(i)
				g.Rows = append(g.Rows, []string{r.String(cols.Predecessor), r.String(cols.Successor), r.String(cols.Type)})
			}
			return writeOut(cmd, app, g)
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "Only relations where this entity id is predecessor or successor")
	return cmd
}
