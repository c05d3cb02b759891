package part

import (
	"path"
	"strings"
	"time"
)

type (
	// Part is one immutable parquet file holding rows of a single type and
	// partition.
	Part struct {
		ID       string
		SchemaID string
		TypeName string
		// Partition is the partition path, e.g. `y=2023/m=January`. Empty when the
		// insert had no partition plans.
		Partition string
		// Name is the file name within the partition directory
		Name      string
		Alive     bool
		CreatedAt time.Time
		RowCount  int64
		Bytes     int64
		// Columns are the top level column names in schema order
		Columns []string
	}
)

// TypePrefix is the directory holding every part of a type.
func TypePrefix(typeName string) string {
	return "t=" + typeName + "/"
}

// Path is where the part file lives in the data store.
func (p Part) Path() string {
	return path.Join(strings.TrimSuffix(TypePrefix(p.TypeName), "/"), p.Partition, p.Name)
}
