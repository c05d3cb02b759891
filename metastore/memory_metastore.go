package metastore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/danthegoodman1/rowbind/part"
)

type (
	// MemoryMetaStore keeps everything in process, for tests and runs without
	// a database.
	MemoryMetaStore struct {
		mu      sync.RWMutex
		schemas map[string]TableSchema
		parts   map[string][]part.Part
	}
)

func NewMemoryMetaStore() *MemoryMetaStore {
	return &MemoryMetaStore{
		schemas: make(map[string]TableSchema),
		parts:   make(map[string][]part.Part),
	}
}

func (mms *MemoryMetaStore) UpsertSchema(_ context.Context, ts TableSchema) (TableSchema, error) {
	mms.mu.Lock()
	defer mms.mu.Unlock()

	now := time.Now()
	existing, exists := mms.schemas[ts.Name]
	if exists && existing.Schema.Equals(ts.Schema) {
		return existing, nil
	}
	ts.UpdatedAt = now
	ts.CreatedAt = now
	if exists {
		ts.CreatedAt = existing.CreatedAt
		logger.Info().Str("type", ts.Name).Str("oldID", existing.ID).Str("newID", ts.ID).Msg("schema changed")
	}
	mms.schemas[ts.Name] = ts
	return ts, nil
}

func (mms *MemoryMetaStore) GetSchema(_ context.Context, name string) (TableSchema, error) {
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	ts, exists := mms.schemas[name]
	if !exists {
		return TableSchema{}, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
	}
	return ts, nil
}

func (mms *MemoryMetaStore) ListSchemas(context.Context) ([]TableSchema, error) {
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	schemas := make([]TableSchema, 0, len(mms.schemas))
	for _, ts := range mms.schemas {
		schemas = append(schemas, ts)
	}
	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Name < schemas[j].Name
	})
	return schemas, nil
}

func (mms *MemoryMetaStore) CreatePart(_ context.Context, p part.Part) error {
	mms.mu.Lock()
	defer mms.mu.Unlock()
	for _, existing := range mms.parts[p.TypeName] {
		if existing.ID == p.ID || existing.Path() == p.Path() {
			return fmt.Errorf("%w: %s", ErrPartExists, p.Path())
		}
	}
	mms.parts[p.TypeName] = append(mms.parts[p.TypeName], p)
	return nil
}

func (mms *MemoryMetaStore) ListParts(_ context.Context, typeName string) ([]part.Part, error) {
	mms.mu.RLock()
	defer mms.mu.RUnlock()
	parts := make([]part.Part, len(mms.parts[typeName]))
	copy(parts, mms.parts[typeName])
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].Partition != parts[j].Partition {
			return parts[i].Partition < parts[j].Partition
		}
		return parts[i].Name < parts[j].Name
	})
	return parts, nil
}

func (mms *MemoryMetaStore) ReplaceParts(_ context.Context, merged part.Part, old []part.Part) error {
	mms.mu.Lock()
	defer mms.mu.Unlock()
	parts := mms.parts[merged.TypeName]
	idx := make([]int, 0, len(old))
	for _, o := range old {
		found := -1
		for i, existing := range parts {
			if existing.ID == o.ID {
				found = i
				break
			}
		}
		if found < 0 || !parts[found].Alive {
			return fmt.Errorf("%w: %s", ErrPartNotAlive, o.Path())
		}
		idx = append(idx, found)
	}
	for _, existing := range parts {
		if existing.ID == merged.ID || existing.Path() == merged.Path() {
			return fmt.Errorf("%w: %s", ErrPartExists, merged.Path())
		}
	}
	for _, i := range idx {
		parts[i].Alive = false
	}
	mms.parts[merged.TypeName] = append(parts, merged)
	return nil
}

func (mms *MemoryMetaStore) Shutdown(context.Context) error {
	return nil
}
