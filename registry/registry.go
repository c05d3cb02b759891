package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/danthegoodman1/rowbind/bean"
	"github.com/danthegoodman1/rowbind/gologger"
	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/utils"
	"golang.org/x/sync/singleflight"
)

var logger = gologger.NewComponentLogger("registry")

type (
	// Entry is everything derived for one bean type. Entries are immutable once
	// stored and safe to share between goroutines.
	Entry struct {
		ID        string           `json:"id"`
		Type      reflect.Type     `json:"-"`
		Name      string           `json:"name"`
		Schema    *schema.Schema   `json:"schema"`
		Getters   bean.GetterTable `json:"-"`
		Setters   bean.SetterTable `json:"-"`
		Creator   bean.Creator     `json:"-"`
		DerivedAt time.Time        `json:"derivedAt"`
	}

	Registry struct {
		binder *bean.Binder
		group  singleflight.Group

		// reflect.Type -> *Entry
		byType sync.Map
		// Entry.Name -> *Entry
		byName sync.Map
	}
)

// Default is the process wide registry used by Register.
var Default = New()

func New(opts ...bean.Option) *Registry {
	return &Registry{
		binder: bean.NewBinder(opts...),
	}
}

// Register derives and stores the entry for T in the Default registry.
func Register[T any]() (*Entry, error) {
	return Default.Get(reflect.TypeOf((*T)(nil)).Elem())
}

// Get returns the entry for t (T or *T), deriving it on first use. Concurrent
// callers for the same type share one derivation. A failed derivation is not
// stored, so the next call tries again.
func (r *Registry) Get(t reflect.Type) (*Entry, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", bean.ErrInstanceType)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if e, ok := r.byType.Load(t); ok {
		return e.(*Entry), nil
	}

	res, err, _ := r.group.Do(typeKey(t), func() (any, error) {
		if e, ok := r.byType.Load(t); ok {
			return e, nil
		}
		e, err := r.derive(t)
		if err != nil {
			return nil, err
		}
		actual, _ := r.byType.LoadOrStore(t, e)
		r.byName.LoadOrStore(e.Name, actual)
		return actual, nil
	})
	if err != nil {
		logger.Debug().Err(err).Str("type", t.String()).Msg("derivation failed")
		return nil, err
	}
	return res.(*Entry), nil
}

// MustGet is Get for types known to be valid beans, such as package level
// registrations.
func (r *Registry) MustGet(t reflect.Type) *Entry {
	e, err := r.Get(t)
	if err != nil {
		panic(err)
	}
	return e
}

func (r *Registry) derive(t reflect.Type) (*Entry, error) {
	s := time.Now()
	sch, err := r.binder.DeriveSchema(t)
	if err != nil {
		return nil, fmt.Errorf("error in DeriveSchema for %s: %w", t, err)
	}
	getters, err := r.binder.BindGetters(t, sch)
	if err != nil {
		return nil, fmt.Errorf("error in BindGetters for %s: %w", t, err)
	}
	setters, err := r.binder.BindSetters(t, sch)
	if err != nil {
		return nil, fmt.Errorf("error in BindSetters for %s: %w", t, err)
	}
	creator, err := bean.MakeCreator(t, setters)
	if err != nil {
		return nil, fmt.Errorf("error in MakeCreator for %s: %w", t, err)
	}

	e := &Entry{
		ID:        utils.GenKSortedID("sch_"),
		Type:      t,
		Name:      TypeName(t),
		Schema:    sch,
		Getters:   getters,
		Setters:   setters,
		Creator:   creator,
		DerivedAt: time.Now(),
	}
	logger.Debug().Str("type", e.Name).Str("id", e.ID).Int("fields", sch.Len()).
		Dur("took", time.Since(s)).Msg("derived schema")
	return e, nil
}

// Lookup finds an already derived entry by its name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.byName.Load(name)
	if !ok {
		return nil, false
	}
	return e.(*Entry), true
}

// Entries lists every stored entry ordered by name.
func (r *Registry) Entries() []*Entry {
	var entries []*Entry
	r.byType.Range(func(_, value any) bool {
		entries = append(entries, value.(*Entry))
		return true
	})
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// TypeName is the name an entry is stored under, e.g. "events.Click".
func TypeName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}

// typeKey is unique per reflect.Type, even for equally named types of
// different packages.
func typeKey(t reflect.Type) string {
	return fmt.Sprintf("%s#%p", t, t)
}

// Extract decomposes obj, a T or *T, into values in schema order.
func (e *Entry) Extract(obj any) ([]any, error) {
	return e.Getters.Extract(obj)
}

// Create builds a new *T from values in schema order.
func (e *Entry) Create(values []any) (any, error) {
	return e.Creator(values)
}
