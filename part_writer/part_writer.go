package part_writer

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/danthegoodman1/rowbind/datastore"
	"github.com/danthegoodman1/rowbind/metastore"
	"github.com/danthegoodman1/rowbind/parquet_accumulator"
	"github.com/danthegoodman1/rowbind/part"
	"github.com/danthegoodman1/rowbind/partitioner"
	"github.com/danthegoodman1/rowbind/registry"
	"github.com/danthegoodman1/rowbind/table"
	"github.com/danthegoodman1/rowbind/utils"
	"github.com/rs/zerolog"
)

var (
	ErrNoRows      = utils.PermError("no rows to write")
	ErrMixedTypes  = utils.PermError("beans are not all of one type")
	ErrRowSchema   = utils.PermError("row does not have the schema of the type")
	ErrNoPartition = utils.PermError("partition has no alive parts")
)

type (
	Writer struct {
		Registry  *registry.Registry
		Converter *table.Converter
		DataStore datastore.DataStore
		MetaStore metastore.MetaStore
	}

	InsertStats struct {
		NumRows      int64
		NumFiles     int64
		BytesWritten int64
		TimeMS       int64
		// Parts are the parts written, in partition order
		Parts []part.Part `json:",omitempty"`
	}

	partitionRows struct {
		partition string
		rows      []*table.Row
	}
)

func New(r *registry.Registry, ds datastore.DataStore, ms metastore.MetaStore) *Writer {
	return &Writer{
		Registry:  r,
		Converter: table.NewConverter(r),
		DataStore: ds,
		MetaStore: ms,
	}
}

// Write converts beans, all of one type, into rows and writes one part per
// partition the plans put them in.
func (w *Writer) Write(ctx context.Context, plans []partitioner.PartitionPlan, beans ...any) (InsertStats, error) {
	if len(beans) == 0 {
		return InsertStats{}, ErrNoRows
	}

	var t reflect.Type
	rows := make([]*table.Row, len(beans))
	for i, b := range beans {
		bt := reflect.TypeOf(b)
		if bt != nil && bt.Kind() == reflect.Pointer {
			bt = bt.Elem()
		}
		if t == nil {
			t = bt
		} else if bt != t {
			return InsertStats{}, fmt.Errorf("%w: %s and %s", ErrMixedTypes, t, bt)
		}

		row, err := w.Converter.ToRow(b)
		if err != nil {
			return InsertStats{}, fmt.Errorf("error converting bean %d: %w", i, err)
		}
		rows[i] = row
	}

	e, err := w.Registry.Get(t)
	if err != nil {
		return InsertStats{}, fmt.Errorf("error in Registry.Get: %w", err)
	}
	return w.WriteRows(ctx, e, plans, rows)
}

// WriteRows writes rows that already carry the schema of e.
func (w *Writer) WriteRows(ctx context.Context, e *registry.Entry, plans []partitioner.PartitionPlan, rows []*table.Row) (InsertStats, error) {
	logger := zerolog.Ctx(ctx)
	start := time.Now()

	if len(rows) == 0 {
		return InsertStats{}, ErrNoRows
	}
	if err := partitioner.ValidatePlans(plans); err != nil {
		return InsertStats{}, err
	}

	partitions, err := groupByPartition(e, plans, rows)
	if err != nil {
		return InsertStats{}, err
	}

	accumulator, err := parquet_accumulator.NewParquetAccumulator(e.Schema)
	if err != nil {
		return InsertStats{}, fmt.Errorf("error in NewParquetAccumulator: %w", err)
	}

	ts, err := w.MetaStore.UpsertSchema(ctx, metastore.NewTableSchema(e.ID, e.Name, e.Schema))
	if err != nil {
		return InsertStats{}, fmt.Errorf("error in UpsertSchema: %w", err)
	}

	stats := InsertStats{}
	for _, pr := range partitions {
		p, err := w.writePart(ctx, accumulator, ts, pr.partition, pr.rows)
		if err != nil {
			return stats, err
		}
		stats.NumRows += p.RowCount
		stats.BytesWritten += p.Bytes
		stats.NumFiles++
		stats.Parts = append(stats.Parts, p)
	}

	stats.TimeMS = time.Since(start).Milliseconds()
	logger.Debug().Str("type", e.Name).Int64("rows", stats.NumRows).Int64("files", stats.NumFiles).Msg("wrote parts")
	return stats, nil
}

func groupByPartition(e *registry.Entry, plans []partitioner.PartitionPlan, rows []*table.Row) ([]*partitionRows, error) {
	byPartition := make(map[string]*partitionRows)
	for i, row := range rows {
		if !row.Schema.Equals(e.Schema) {
			return nil, fmt.Errorf("%w: row %d of %s", ErrRowSchema, i, e.Name)
		}
		partition, err := partitioner.GetRowPartition(row, plans)
		if err != nil {
			return nil, fmt.Errorf("error getting partition for row %d: %w", i, err)
		}
		pr, exists := byPartition[partition]
		if !exists {
			pr = &partitionRows{partition: partition}
			byPartition[partition] = pr
		}
		pr.rows = append(pr.rows, row)
	}

	partitions := make([]*partitionRows, 0, len(byPartition))
	for _, pr := range byPartition {
		partitions = append(partitions, pr)
	}
	sort.Slice(partitions, func(i, j int) bool {
		return partitions[i].partition < partitions[j].partition
	})
	return partitions, nil
}

// writePart writes rows as a new parquet file and records it in the meta store
func (w *Writer) writePart(ctx context.Context, accumulator *parquet_accumulator.ParquetSchemaAccumulator, ts metastore.TableSchema, partition string, rows []*table.Row) (part.Part, error) {
	var b bytes.Buffer
	if err := accumulator.WriteRows(&b, rows); err != nil {
		return part.Part{}, fmt.Errorf("error in WriteRows: %w", err)
	}

	p := part.Part{
		ID:        utils.GenRandomID("prt_"),
		SchemaID:  ts.ID,
		TypeName:  ts.Name,
		Partition: partition,
		Name:      fmt.Sprintf("%s.parquet", utils.GenKSortedID("")),
		Alive:     true,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		RowCount:  int64(len(rows)),
		Columns:   accumulator.GetColumnNames(),
	}

	n, err := w.DataStore.WriteFile(ctx, p.Path(), &b)
	if err != nil {
		return part.Part{}, fmt.Errorf("error in WriteFile for %s: %w", p.Path(), err)
	}
	p.Bytes = n

	if err := w.MetaStore.CreatePart(ctx, p); err != nil {
		return part.Part{}, fmt.Errorf("error in CreatePart: %w", err)
	}
	return p, nil
}

// alivePartsOf returns the alive parts of typeName in partition, oldest first.
func (w *Writer) alivePartsOf(ctx context.Context, typeName, partition string) ([]part.Part, error) {
	parts, err := w.MetaStore.ListParts(ctx, typeName)
	if err != nil {
		return nil, fmt.Errorf("error in ListParts: %w", err)
	}
	var alive []part.Part
	for _, p := range parts {
		if p.Alive && p.Partition == partition {
			alive = append(alive, p)
		}
	}
	return alive, nil
}

// ReadPart reads the rows of a part back using the schema stored for its type.
func (w *Writer) ReadPart(ctx context.Context, p part.Part) ([]*table.Row, error) {
	ts, err := w.MetaStore.GetSchema(ctx, p.TypeName)
	if err != nil {
		return nil, fmt.Errorf("error in GetSchema: %w", err)
	}
	if ts.ID != p.SchemaID {
		return nil, fmt.Errorf("%w: part %s has schema %s, stored schema is %s", ErrRowSchema, p.Path(), p.SchemaID, ts.ID)
	}
	accumulator, err := parquet_accumulator.NewParquetAccumulator(ts.Schema)
	if err != nil {
		return nil, fmt.Errorf("error in NewParquetAccumulator: %w", err)
	}
	return readPart(ctx, w.DataStore, accumulator, p)
}

func readPart(ctx context.Context, ds datastore.DataStore, accumulator *parquet_accumulator.ParquetSchemaAccumulator, p part.Part) ([]*table.Row, error) {
	data, err := ds.ReadFile(ctx, p.Path())
	if err != nil {
		return nil, fmt.Errorf("error in ReadFile for %s: %w", p.Path(), err)
	}
	rows, err := accumulator.ReadRows(data)
	if err != nil {
		return nil, fmt.Errorf("error in ReadRows for %s: %w", p.Path(), err)
	}
	return rows, nil
}
