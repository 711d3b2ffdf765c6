package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"rowbind/internal/entitysync"
	"rowbind/internal/model"
	"rowbind/internal/rowstore"

	"github.com/spf13/cobra"
)

// importFile is the JSON accepted by `rowbind import`.
type importFile struct {
	Entities  []*model.Entity `json:"entities"`
	Relations []struct {
		PredecessorID string `json:"predecessorId"`
		SuccessorID   string `json:"successorId"`
		Type          string `json:"type"`
	} `json:"relations"`
}

type importResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Linked    int `json:"linked"`
}

func newImportCmd(app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Merge entities and relations into the tables, matching rows by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			var in importFile
			if err := json.Unmarshal(b, &in); err != nil {
				return writeErr(cmd, fmt.Errorf("parse %s: %w", args[0], err))
			}

			entities, relations, err := loadTables(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			res, err := importInto(entitysync.New(entities, relations, app.log), in)
			if err != nil {
				return writeErr(cmd, err)
			}
			if !dryRun {
				if err := rowstore.SaveSQLite(cmd.Context(), app.cfg.DBPath, entities, relations); err != nil {
					return writeErr(cmd, err)
				}
			}
			app.log.Info("import done", "file", args[0], "created", res.Created, "updated", res.Updated, "linked", res.Linked)
			return writeOut(cmd, app, map[string]any{"data": res, "dryRun": dryRun})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without saving")
	return cmd
}

func importInto(s *entitysync.Synchronizer, in importFile) (importResult, error) {
	var res importResult
	for _, e := range in.Entities {
		if e == nil || e.ID == "" {
			id, err := rowstore.NewID()
			if err != nil {
				return res, err
			}
			if e == nil {
				e = &model.Entity{}
			}
			e.ID = id
		}
		e.SetCompletion(e.Completion)

		before, existed := s.Lookup(e.ID)
		switch {
		case !existed:
			res.Created++
		case entitysync.ValuesEqual(e, s.EntityFromRow(before)):
			res.Unchanged++
		default:
			res.Updated++
		}
		if _, err := s.Push(e); err != nil {
			return res, err
		}
	}
	for _, r := range in.Relations {
		typ, err := model.ParseRelationType(r.Type)
		if err != nil {
			return res, err
		}
		rel := model.Relation{PredecessorID: r.PredecessorID, SuccessorID: r.SuccessorID, Type: typ}
		if _, err := s.Relation(rel); err == nil {
			continue
		}
		if _, err := s.Link(rel); err != nil {
			return res, err
		}
		res.Linked++
	}
	return res, nil
}
