package metastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danthegoodman1/rowbind/part"
	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/utils"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type (
	CRDBMetaStore struct {
		pool    *pgxpool.Pool
		timeout time.Duration
	}

	rowScanner interface {
		Scan(dest ...any) error
	}
)

const (
	uniqueViolation = "23505"

	schemaCols = `id, name, definition, col_names, col_types, created_at, updated_at`
	partCols   = `id, schema_id, type_name, part_path, name, alive, created_at, row_count, bytes, col_names`
)

func NewCRDBMetaStore(pool *pgxpool.Pool, timeout time.Duration) *CRDBMetaStore {
	return &CRDBMetaStore{
		pool:    pool,
		timeout: timeout,
	}
}

func scanSchema(row rowScanner) (TableSchema, error) {
	var ts TableSchema
	var definition []byte
	err := row.Scan(&ts.ID, &ts.Name, &definition, &ts.ColNames, &ts.ColTypes, &ts.CreatedAt, &ts.UpdatedAt)
	if err != nil {
		return ts, err
	}
	var s schema.Schema
	err = json.Unmarshal(definition, &s)
	if err != nil {
		return ts, fmt.Errorf("error in json.Unmarshal of schema %s: %w", ts.Name, err)
	}
	ts.Schema = &s
	return ts, nil
}

func scanPart(row rowScanner) (part.Part, error) {
	var p part.Part
	err := row.Scan(&p.ID, &p.SchemaID, &p.TypeName, &p.Partition, &p.Name, &p.Alive, &p.CreatedAt, &p.RowCount, &p.Bytes, &p.Columns)
	return p, err
}

func (cms *CRDBMetaStore) UpsertSchema(ctx context.Context, ts TableSchema) (TableSchema, error) {
	definition, err := json.Marshal(ts.Schema)
	if err != nil {
		return TableSchema{}, fmt.Errorf("error in json.Marshal of schema: %w", err)
	}

	var stored TableSchema
	err = utils.ReliableExecInTx(ctx, cms.pool, cms.timeout, func(ctx context.Context, tx pgx.Tx) error {
		existing, err := scanSchema(tx.QueryRow(ctx, `SELECT `+schemaCols+` FROM schemas WHERE name = $1 FOR UPDATE`, ts.Name))
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			stored, err = scanSchema(tx.QueryRow(ctx, `
				INSERT INTO schemas (id, name, definition, col_names, col_types)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING `+schemaCols,
				ts.ID, ts.Name, definition, ts.ColNames, ts.ColTypes,
			))
			if err != nil {
				return fmt.Errorf("error inserting schema: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("error selecting schema: %w", err)
		case existing.Schema.Equals(ts.Schema):
			stored = existing
			return nil
		}

		logger.Info().Str("type", ts.Name).Str("oldID", existing.ID).Str("newID", ts.ID).Msg("schema changed")
		stored, err = scanSchema(tx.QueryRow(ctx, `
			UPDATE schemas
			SET id = $1, definition = $2, col_names = $3, col_types = $4, updated_at = now()
			WHERE name = $5
			RETURNING `+schemaCols,
			ts.ID, definition, ts.ColNames, ts.ColTypes, ts.Name,
		))
		if err != nil {
			return fmt.Errorf("error updating schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return TableSchema{}, fmt.Errorf("error in ReliableExecInTx: %w", err)
	}
	return stored, nil
}

func (cms *CRDBMetaStore) GetSchema(ctx context.Context, name string) (ts TableSchema, err error) {
	err = utils.ReliableExec(ctx, cms.pool, cms.timeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		ts, err = scanSchema(conn.QueryRow(ctx, `SELECT `+schemaCols+` FROM schemas WHERE name = $1`, name))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
		}
		return err
	})
	return
}

func (cms *CRDBMetaStore) ListSchemas(ctx context.Context) (schemas []TableSchema, err error) {
	err = utils.ReliableExec(ctx, cms.pool, cms.timeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		schemas = nil
		rows, err := conn.Query(ctx, `SELECT `+schemaCols+` FROM schemas ORDER BY name`)
		if err != nil {
			return fmt.Errorf("error in Query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			ts, err := scanSchema(rows)
			if err != nil {
				return fmt.Errorf("error scanning schema: %w", err)
			}
			schemas = append(schemas, ts)
		}
		return rows.Err()
	})
	return
}

func (cms *CRDBMetaStore) CreatePart(ctx context.Context, p part.Part) error {
	return utils.ReliableExec(ctx, cms.pool, cms.timeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO parts (`+partCols+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.SchemaID, p.TypeName, p.Partition, p.Name, p.Alive, p.CreatedAt, p.RowCount, p.Bytes, p.Columns,
		)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrPartExists, p.Path())
		}
		return err
	})
}

func (cms *CRDBMetaStore) ListParts(ctx context.Context, typeName string) (parts []part.Part, err error) {
	err = utils.ReliableExec(ctx, cms.pool, cms.timeout, func(ctx context.Context, conn *pgxpool.Conn) error {
		parts = nil
		rows, err := conn.Query(ctx, `SELECT `+partCols+` FROM parts WHERE type_name = $1 ORDER BY part_path, name`, typeName)
		if err != nil {
			return fmt.Errorf("error in Query: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanPart(rows)
			if err != nil {
				return fmt.Errorf("error scanning part: %w", err)
			}
			parts = append(parts, p)
		}
		return rows.Err()
	})
	return
}

func (cms *CRDBMetaStore) ReplaceParts(ctx context.Context, merged part.Part, old []part.Part) error {
	ids := make([]string, len(old))
	for i, o := range old {
		ids[i] = o.ID
	}
	return utils.ReliableExecInTx(ctx, cms.pool, cms.timeout, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE parts SET alive = false
			WHERE type_name = $1 AND id = ANY($2) AND alive`,
			merged.TypeName, ids,
		)
		if err != nil {
			return fmt.Errorf("error disabling parts: %w", err)
		}
		if tag.RowsAffected() != int64(len(ids)) {
			return fmt.Errorf("%w: replaced %d of %d", ErrPartNotAlive, tag.RowsAffected(), len(ids))
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO parts (`+partCols+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			merged.ID, merged.SchemaID, merged.TypeName, merged.Partition, merged.Name, merged.Alive, merged.CreatedAt, merged.RowCount, merged.Bytes, merged.Columns,
		)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrPartExists, merged.Path())
		}
		if err != nil {
			return fmt.Errorf("error inserting merged part: %w", err)
		}
		return nil
	})
}

func (cms *CRDBMetaStore) Shutdown(context.Context) error {
	cms.pool.Close()
	return nil
}
