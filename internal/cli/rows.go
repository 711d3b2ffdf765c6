package cli

import (
	"fmt"
	"strconv"

	"rowbind/internal/format"
	"rowbind/internal/index"
	"rowbind/internal/rowstore"

	"github.com/spf13/cobra"
)

func newRowsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Inspect entity rows",
	}
	cmd.AddCommand(newRowsListCmd(app))
	return cmd
}

func newRowsListCmd(app *App) *cobra.Command {
	var (
		sortBy string
		desc   bool
		filter string
		column string
		mode   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rows in display order with their view and storage index",
		RunE: func(cmd *cobra.Command, args []string) error {
			entities, _, err := loadTables(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if mode == "" {
				mode = app.cfg.SearchMode
			}
			sm, err := index.ParseSearchMode(mode)
			if err != nil {
				return writeErr(cmd, err)
			}
			top, err := buildChain(entities, sortBy, desc, filter, column, sm)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, rowsGrid(entities, index.Static{L: top}))
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort by column name")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().StringVar(&filter, "filter", "", "Only rows whose text matches")
	cmd.Flags().StringVar(&column, "column", "", "Match the filter against this column only")
	cmd.Flags().StringVar(&mode, "mode", "", "Filter anchoring (anywhere|starts-with|ends-with|exact)")
	return cmd
}

// buildChain stacks filter -> sort -> table the way the grid does.
func buildChain(t *rowstore.Table, sortBy string, desc bool, filter, column string, mode index.SearchMode) (index.Layer, error) {
	sortCol := -1
	if sortBy != "" {
		if sortCol = t.ColumnIndex(sortBy); sortCol < 0 {
			return nil, fmt.Errorf("sort: %w: %s", rowstore.ErrNoSuchColumn, sortBy)
		}
	}
	filterCol := index.AllColumns
	if column != "" {
		if filterCol = t.ColumnIndex(column); filterCol < 0 {
			return nil, fmt.Errorf("filter: %w: %s", rowstore.ErrNoSuchColumn, column)
		}
	}
	sorted := index.NewSortLayer(rowstore.NewModel(t), sortCol, desc)
	f := index.NewFilterLayer(sorted)
	f.SetQuery(filter, filterCol, mode)
	return f, nil
}

func rowsGrid(t *rowstore.Table, c index.Component) format.Grid {
	cols := t.Columns()
	g := format.Grid{Headers: []string{"view", "storage"}}
	for _, col := range cols {
		g.Headers = append(g.Headers, col.Name)
	}
	n := c.Model().RowCount()
	for view := 0; view < n; view++ {
		storage := index.ViewToModel(c, view)
		line := []string{strconv.Itoa(view), strconv.Itoa(storage)}
		for col := range cols {
			line = append(line, index.FormatValue(t.Value(storage, col)))
		}
		g.Rows = append(g.Rows, line)
	}
	return g
}
