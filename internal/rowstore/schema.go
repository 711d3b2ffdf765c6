package rowstore

import (
	"fmt"

	"github.com/google/uuid"
)

// Table names used by the CLI and TUI.
const (
	EntitiesTable  = "entities"
	RelationsTable = "relations"
)

// Entity table columns.
const (
	ColID         = "id"
	ColName       = "name"
	ColCompletion = "completion"
	ColLower      = "lower"
	ColUpper      = "upper"
	ColParent     = "parent"
)

// Relation table columns.
const (
	ColRelationID  = "id"
	ColPredecessor = "predecessor"
	ColSuccessor   = "successor"
	ColType        = "type"
)

func NewEntityTable() *Table {
	return NewTable(EntitiesTable,
		Column{Name: ColID, Type: TypeString},
		Column{Name: ColName, Type: TypeString},
		Column{Name: ColCompletion, Type: TypeFloat},
		Column{Name: ColLower, Type: TypeTime},
		Column{Name: ColUpper, Type: TypeTime},
		Column{Name: ColParent, Type: TypeString},
	)
}

func NewRelationTable() *Table {
	return NewTable(RelationsTable,
		Column{Name: ColRelationID, Type: TypeString},
		Column{Name: ColPredecessor, Type: TypeString},
		Column{Name: ColSuccessor, Type: TypeString},
		Column{Name: ColType, Type: TypeString},
	)
}

// NewID returns a time-ordered UUID (v7) string.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating UUID v7: %w", err)
	}
	return id.String(), nil
}
