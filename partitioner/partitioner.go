package partitioner

import (
	"fmt"
	"strings"
	"time"

	"github.com/danthegoodman1/rowbind/table"
	"github.com/danthegoodman1/rowbind/utils"
)

type (
	PartitionPlan struct {
		Func string   `validate:"required"`
		Args []string `validate:"required"`
		As   string   `validate:"required"`
	}

	PartitionFunc func(row *table.Row, args []string) (string, error)
)

var (
	Functions = make(map[string]PartitionFunc)

	ErrFuncNotFound = utils.PermError("partition function not found")

	ErrMissingArgs       = utils.PermError("missing args")
	ErrMissingColumns    = utils.PermError("missing one or more columns specified in args")
	ErrInvalidColumnType = utils.PermError("invalid column type")
)

func timeFunc(format func(t time.Time) string) PartitionFunc {
	return func(row *table.Row, args []string) (string, error) {
		t, err := parseTimeFunc(row, args)
		if err != nil {
			return "", fmt.Errorf("error in parseTimeFunc: %w", err)
		}
		return format(t), nil
	}
}

func RegisterFunctions() {
	Functions["toDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Day())
	})
	Functions["toMonth"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Month())
	})
	Functions["toYear"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Year())
	})
	Functions["toYearDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.YearDay())
	})
	Functions["toYearWeek"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.ISOWeek())
	})
	Functions["toWeekDay"] = timeFunc(func(t time.Time) string {
		return fmt.Sprint(t.Weekday())
	})
	Functions["toDate"] = timeFunc(func(t time.Time) string {
		return t.Format("2006-01-02")
	})
	Functions["column"] = func(row *table.Row, args []string) (string, error) {
		if len(args) == 0 {
			return "", ErrMissingArgs
		}
		value, exists := lookup(row, args[0])
		if !exists {
			return "", ErrMissingColumns
		}
		switch value.(type) {
		case *table.Row, []any, map[any]any:
			return "", ErrInvalidColumnType
		}
		return fmt.Sprint(value), nil
	}
}

// ValidatePlans checks that every plan names a registered function.
func ValidatePlans(plans []PartitionPlan) error {
	for _, plan := range plans {
		if _, ok := Functions[plan.Func]; !ok {
			return fmt.Errorf("%w: %s", ErrFuncNotFound, plan.Func)
		}
	}
	return nil
}

func GetRowPartition(row *table.Row, partitioners []PartitionPlan) (string, error) {
	var finalParts []string
	for _, partFunc := range partitioners {
		f, ok := Functions[partFunc.Func]
		if !ok {
			return "", ErrFuncNotFound
		}

		s, err := f(row, partFunc.Args)
		if err != nil {
			return "", fmt.Errorf("error processing partition function %s: %w", partFunc.Func, err)
		}
		finalParts = append(finalParts, fmt.Sprintf("%s=%s", partFunc.As, s))
	}
	return strings.Join(finalParts, "/"), nil
}

// lookup resolves a column, descending into nested rows for dotted keys like
// `shipping.zip`
func lookup(row *table.Row, key string) (any, bool) {
	name, rest, nested := strings.Cut(key, ".")
	value, exists := row.Get(name)
	if !exists || !nested {
		return value, exists
	}
	inner, ok := value.(*table.Row)
	if !ok || inner == nil {
		return nil, false
	}
	return lookup(inner, rest)
}

func parseTimeFunc(row *table.Row, args []string) (t time.Time, err error) {
	if len(args) == 0 {
		err = ErrMissingArgs
		return
	}

	key := args[0]

	if key == "now()" {
		t = time.Now()
		return
	}

	value, exists := lookup(row, key)
	if !exists {
		err = ErrMissingColumns
		return
	}

	switch val := value.(type) {
	case time.Time:
		t = val
	case string:
		// We have a datetime like YYYY-MM-DDTHH:mm:ss.sssZ
		t, err = time.Parse("2006-01-02T15:04:05.000Z", val)
		if err != nil {
			t, err = time.Parse(time.RFC3339Nano, val)
		}
		if err != nil {
			err = fmt.Errorf("%w: error in time.Parse for string: %s", ErrInvalidColumnType, err)
		}
	case float64:
		// We have a float as an int
		t = time.UnixMilli(int64(val)).UTC()
	case int64:
		t = time.UnixMilli(val).UTC()
	default:
		err = ErrInvalidColumnType
	}
	return
}
