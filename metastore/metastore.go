package metastore

import (
	"context"
	"time"

	"github.com/danthegoodman1/rowbind/gologger"
	"github.com/danthegoodman1/rowbind/part"
	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/utils"
)

var (
	logger = gologger.NewComponentLogger("metastore")

	ErrSchemaNotFound = utils.PermError("schema not found")
	ErrPartExists     = utils.PermError("part already exists")
	ErrPartNotAlive   = utils.PermError("part is not alive")
)

type (
	MetaStore interface {
		// UpsertSchema stores the schema of a type. When an equal schema is already
		// stored under the name the stored record is returned unchanged, so its ID
		// is stable across processes.
		UpsertSchema(ctx context.Context, ts TableSchema) (TableSchema, error)
		// GetSchema returns ErrSchemaNotFound for unknown names
		GetSchema(ctx context.Context, name string) (TableSchema, error)
		ListSchemas(ctx context.Context) ([]TableSchema, error)

		// CreatePart records a written part file
		CreatePart(ctx context.Context, p part.Part) error
		// ListParts lists all parts for a type ordered by partition and name
		ListParts(ctx context.Context, typeName string) ([]part.Part, error)
		// ReplaceParts records merged and marks every part in old as no longer
		// alive, atomically. Returns ErrPartNotAlive if one of old was already
		// replaced.
		ReplaceParts(ctx context.Context, merged part.Part, old []part.Part) error

		Shutdown(ctx context.Context) error
	}

	TableSchema struct {
		ID     string
		Name   string
		Schema *schema.Schema

		ColNames []string
		ColTypes []string

		CreatedAt time.Time
		UpdatedAt time.Time
	}
)

// NewTableSchema describes s as stored under name.
func NewTableSchema(id, name string, s *schema.Schema) TableSchema {
	ts := TableSchema{
		ID:       id,
		Name:     name,
		Schema:   s,
		ColNames: s.FieldNames(),
		ColTypes: make([]string, s.Len()),
	}
	for i, f := range s.Fields() {
		ts.ColTypes[i] = f.Type.String()
	}
	return ts
}
