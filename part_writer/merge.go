package part_writer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/rowbind/parquet_accumulator"
	"github.com/danthegoodman1/rowbind/part"
	"github.com/danthegoodman1/rowbind/table"
	"github.com/danthegoodman1/rowbind/utils"
	"github.com/rs/zerolog"
)

type (
	MergeOptions struct {
		TypeName string `validate:"required"`
		// The partition path, minus the leading `t={TypeName}/`.
		//
		// Ex: `y=2022/m=December`
		Partition string
		// The max file size in bytes that will be considered for merging.
		//
		// Default 1GB.
		MaxPreMergeFileBytes *int64
		// The max file size after merge, controls how many files can be merged.
		//
		// Default 5GB.
		MaxPostMergeFileBytes *int64
		// Max number of files to merge at once.
		//
		// Default 4.
		MaxMergeFiles *int32
	}

	MergeStats struct {
		FilesMerged int64
		RowsMerged  int64
		// The size of the file after merging
		PostMergeBytes int64
		TimeMS         int64
		// The merged part, nil when there was nothing to merge
		Part *part.Part `json:",omitempty"`
	}
)

// Merge rewrites the oldest small alive parts of a partition as one part and
// marks the originals as no longer alive. Fewer than two candidates is not an
// error, the returned stats are just empty. Only parts written with the
// currently stored schema are considered.
func (w *Writer) Merge(ctx context.Context, opts MergeOptions) (MergeStats, error) {
	logger := zerolog.Ctx(ctx).With().Str("type", opts.TypeName).Str("partition", opts.Partition).Logger()
	start := time.Now()

	ts, err := w.MetaStore.GetSchema(ctx, opts.TypeName)
	if err != nil {
		return MergeStats{}, fmt.Errorf("error in GetSchema: %w", err)
	}

	alive, err := w.alivePartsOf(ctx, opts.TypeName, opts.Partition)
	if err != nil {
		return MergeStats{}, err
	}
	if len(alive) == 0 {
		return MergeStats{}, fmt.Errorf("%w: %s", ErrNoPartition, opts.Partition)
	}
	toMerge := selectForMerge(alive, ts.ID, opts)
	if len(toMerge) < 2 {
		logger.Debug().Msg("not enough files to merge")
		return MergeStats{}, nil
	}

	accumulator, err := parquet_accumulator.NewParquetAccumulator(ts.Schema)
	if err != nil {
		return MergeStats{}, fmt.Errorf("error in NewParquetAccumulator: %w", err)
	}

	var res MergeStats
	var rows []*table.Row
	for _, p := range toMerge {
		st := time.Now()
		partRows, err := readPart(ctx, w.DataStore, accumulator, p)
		if err != nil {
			return MergeStats{}, err
		}
		rows = append(rows, partRows...)
		res.RowsMerged += int64(len(partRows))
		res.FilesMerged++
		logger.Debug().Str("fileName", p.Name).Msgf("read file to merge in %s", time.Since(st))
	}

	var b bytes.Buffer
	if err := accumulator.WriteRows(&b, rows); err != nil {
		return MergeStats{}, fmt.Errorf("error in WriteRows: %w", err)
	}

	merged := part.Part{
		ID:        utils.GenRandomID("prt_"),
		SchemaID:  ts.ID,
		TypeName:  ts.Name,
		Partition: opts.Partition,
		Name:      fmt.Sprintf("%s.parquet", utils.GenKSortedID("")),
		Alive:     true,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		RowCount:  res.RowsMerged,
		Columns:   accumulator.GetColumnNames(),
	}
	merged.Bytes, err = w.DataStore.WriteFile(ctx, merged.Path(), &b)
	if err != nil {
		return MergeStats{}, fmt.Errorf("error in WriteFile for %s: %w", merged.Path(), err)
	}

	if err := w.MetaStore.ReplaceParts(ctx, merged, toMerge); err != nil {
		return MergeStats{}, fmt.Errorf("error in ReplaceParts: %w", err)
	}

	res.PostMergeBytes = merged.Bytes
	res.Part = &merged
	res.TimeMS = time.Since(start).Milliseconds()
	logger.Debug().Interface("stats", res).Msg("merged files")
	return res, nil
}

// selectForMerge picks parts in listed order until a limit is hit
func selectForMerge(alive []part.Part, schemaID string, opts MergeOptions) []part.Part {
	maxPre := utils.Deref(opts.MaxPreMergeFileBytes, 1_000_000_000)
	maxPost := utils.Deref(opts.MaxPostMergeFileBytes, 5_000_000_000)
	maxFiles := int(utils.Deref(opts.MaxMergeFiles, 4))

	var selected []part.Part
	var total int64
	for _, p := range alive {
		if len(selected) >= maxFiles {
			break
		}
		if p.SchemaID != schemaID || p.Bytes > maxPre {
			continue
		}
		if total+p.Bytes > maxPost {
			break
		}
		selected = append(selected, p)
		total += p.Bytes
	}
	return selected
}
