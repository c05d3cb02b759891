package bean

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/danthegoodman1/rowbind/schema"
	"github.com/danthegoodman1/rowbind/utils"
	"github.com/google/go-cmp/cmp"
)

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestDeriveSchemaPerson(t *testing.T) {
	s, err := DeriveSchema(typeOf[Person]())
	if err != nil {
		t.Fatal(err)
	}

	expected := schema.MustNewSchema(
		schema.Field{Name: "id", Type: schema.Primitive(schema.Int32)},
		schema.Field{Name: "name", Type: schema.Primitive(schema.String).WithNullable(true)},
	)
	if !s.Equals(expected) {
		t.Fatalf("expected %s, got %s", expected, s)
	}
	if s.Field(0).Type.Nullable {
		t.Fatal("id should not be nullable")
	}
	if !s.Field(1).Type.Nullable {
		t.Fatal("name should be nullable")
	}
}

func TestPersonRoundTrip(t *testing.T) {
	typ := typeOf[Person]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	getters, err := BindGetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}

	p := &Person{}
	p.SetId(7)
	p.SetName("x")

	vals, err := getters.Extract(p)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{int32(7), "x"}, vals); diff != "" {
		t.Fatalf("extracted values mismatch (-want +got):\n%s", diff)
	}

	created, err := create([]any{int32(7), "x"})
	if err != nil {
		t.Fatal(err)
	}
	if *created.(*Person) != *p {
		t.Fatalf("expected %+v, got %+v", *p, created)
	}
}

func TestIsGetter(t *testing.T) {
	s, err := DeriveSchema(typeOf[Account]())
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 field, got %s", s)
	}
	f := s.Field(0)
	if f.Name != "active" || f.Type.TypeName != schema.Boolean || f.Type.Nullable {
		t.Fatalf("unexpected field %+v", f)
	}
}

func TestDeriveSchemaAcceptsPointerType(t *testing.T) {
	a, err := DeriveSchema(reflect.TypeOf(&Person{}))
	if err != nil {
		t.Fatal(err)
	}
	b, err := DeriveSchema(reflect.TypeOf(Person{}))
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equals(b) {
		t.Fatalf("%s != %s", a, b)
	}
}

func TestDeriveSchemaDeterministic(t *testing.T) {
	first, err := DeriveSchema(typeOf[Order]())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, err := DeriveSchema(typeOf[Order]())
		if err != nil {
			t.Fatal(err)
		}
		if !first.Equals(again) {
			t.Fatalf("derivation %d differs: %s vs %s", i, first, again)
		}
	}

	expectedNames := []string{"attrs", "billing", "created", "discount", "id", "lines", "note", "paid", "ratio", "raw", "shipping", "tags"}
	if diff := cmp.Diff(expectedNames, first.FieldNames()); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderFieldTypes(t *testing.T) {
	s, err := DeriveSchema(typeOf[Order]())
	if err != nil {
		t.Fatal(err)
	}
	address := schema.MustNewSchema(
		schema.Field{Name: "street", Type: schema.Primitive(schema.String).WithNullable(true)},
		schema.Field{Name: "zip", Type: schema.Primitive(schema.Int32)},
	)

	expected := map[string]schema.FieldType{
		"attrs":    schema.MapOf(schema.Primitive(schema.String).WithNullable(true), schema.Primitive(schema.Int32)).WithNullable(true),
		"billing":  schema.RowOf(address).WithNullable(true),
		"created":  schema.Primitive(schema.DateTime).WithNullable(true),
		"discount": schema.Primitive(schema.Float).WithNullable(true),
		"id":       schema.Primitive(schema.Int64),
		"lines":    schema.ArrayOf(schema.RowOf(address).WithNullable(true)).WithNullable(true),
		"note":     schema.Primitive(schema.String).WithNullable(true),
		"paid":     schema.Primitive(schema.Boolean),
		"ratio":    schema.Primitive(schema.Double),
		"raw":      schema.Primitive(schema.Bytes).WithNullable(true),
		"shipping": schema.RowOf(address).WithNullable(true),
		"tags":     schema.ArrayOf(schema.Primitive(schema.String).WithNullable(true)).WithNullable(true),
	}
	for name, ft := range expected {
		f, ok := s.FieldByName(name)
		if !ok {
			t.Fatalf("missing field %s", name)
		}
		if !f.Type.Equals(ft) {
			t.Errorf("field %s: expected %s, got %s", name, ft, f.Type)
		}
	}
}

func TestOrderRoundTrip(t *testing.T) {
	typ := typeOf[Order]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	getters, err := BindGetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}

	for _, o := range []*Order{
		{},
		{
			id:       42,
			tags:     []string{"a", "b"},
			attrs:    map[string]int32{"x": 1},
			note:     utils.Ptr("fragile"),
			discount: utils.Ptr(float32(0.5)),
			shipping: &Address{street: "Main", zip: 12345},
			billing:  Address{street: "Side", zip: 1},
			created:  time.Date(2022, 12, 30, 10, 0, 0, 0, time.UTC),
			ratio:    0.25,
			raw:      []byte("raw"),
			paid:     true,
			lines:    []Address{{street: "L1"}},
		},
	} {
		vals, err := getters.Extract(o)
		if err != nil {
			t.Fatal(err)
		}
		if len(vals) != s.Len() {
			t.Fatalf("expected %d values, got %d", s.Len(), len(vals))
		}
		created, err := create(vals)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(o, created.(*Order), cmp.AllowUnexported(Order{}, Address{})); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestExtractDereferencesPointers(t *testing.T) {
	typ := typeOf[Order]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	getters, err := BindGetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	// extraction from a value works the same as from a pointer
	vals, err := getters.Extract(Order{note: utils.Ptr("n")})
	if err != nil {
		t.Fatal(err)
	}
	if v := vals[s.IndexOf("note")]; v != "n" {
		t.Fatalf("expected dereferenced note, got %#v", v)
	}
	if v := vals[s.IndexOf("shipping")]; v != nil {
		t.Fatalf("expected nil shipping, got %#v", v)
	}
}

func TestTablesAlignWithSchema(t *testing.T) {
	for _, typ := range []reflect.Type{typeOf[Person](), typeOf[Order](), typeOf[Fluent](), typeOf[Derived]()} {
		s, err := DeriveSchema(typ)
		if err != nil {
			t.Fatal(err)
		}
		getters, err := BindGetters(typ, s)
		if err != nil {
			t.Fatal(err)
		}
		setters, err := BindSetters(typ, s)
		if err != nil {
			t.Fatal(err)
		}
		if len(getters) != s.Len() || len(setters) != s.Len() {
			t.Fatalf("%s: table lengths %d/%d for %d fields", typ, len(getters), len(setters), s.Len())
		}
		if diff := cmp.Diff(s.FieldNames(), getters.Names()); diff != "" {
			t.Fatalf("%s getters (-want +got):\n%s", typ, diff)
		}
		if diff := cmp.Diff(s.FieldNames(), setters.Names()); diff != "" {
			t.Fatalf("%s setters (-want +got):\n%s", typ, diff)
		}
	}
}

func TestMissingSetter(t *testing.T) {
	typ := typeOf[ReadOnly]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := BindGetters(typ, s); err != nil {
		t.Fatal(err)
	}
	_, err = BindSetters(typ, s)
	var mae *MissingAccessorError
	if !errors.As(err, &mae) {
		t.Fatalf("expected MissingAccessorError, got %v", err)
	}
	if mae.Field != "foo" || mae.Kind != SetterKind || mae.Type != typ {
		t.Fatalf("unexpected error %+v", mae)
	}
	if !utils.IsPermanent(err) {
		t.Fatal("expected a permanent error")
	}
}

func TestMissingGetterAgainstForeignSchema(t *testing.T) {
	s := schema.MustNewSchema(schema.Field{Name: "zip", Type: schema.Primitive(schema.Int32)})
	_, err := BindGetters(typeOf[Person](), s)
	var mae *MissingAccessorError
	if !errors.As(err, &mae) || mae.Field != "zip" || mae.Kind != GetterKind {
		t.Fatalf("expected missing getter for zip, got %v", err)
	}
}

func TestDuplicateField(t *testing.T) {
	_, err := DeriveSchema(typeOf[Ambiguous]())
	var dfe *DuplicateFieldError
	if !errors.As(err, &dfe) {
		t.Fatalf("expected DuplicateFieldError, got %v", err)
	}
	if dfe.Field != "foo" || dfe.Methods != [2]string{"GetFoo", "IsFoo"} {
		t.Fatalf("unexpected error %+v", dfe)
	}
}

func TestCyclicSchema(t *testing.T) {
	_, err := DeriveSchema(typeOf[Node]())
	var cse *CyclicSchemaError
	if !errors.As(err, &cse) {
		t.Fatalf("expected CyclicSchemaError, got %v", err)
	}
	if cse.Type != typeOf[Node]() {
		t.Fatalf("unexpected cycle type %s", cse.Type)
	}

	_, err = DeriveSchema(typeOf[Left]())
	if !errors.As(err, &cse) {
		t.Fatalf("expected CyclicSchemaError, got %v", err)
	}
	if len(cse.Path) != 2 || cse.Path[0] != typeOf[Left]() || cse.Path[1] != typeOf[Right]() {
		t.Fatalf("unexpected cycle path %v", cse.Path)
	}
	if !strings.Contains(err.Error(), "bean.Left -> bean.Right -> bean.Left") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUnsupportedType(t *testing.T) {
	_, err := DeriveSchema(typeOf[WithChannel]())
	var ute *UnsupportedTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTypeError, got %v", err)
	}
	if ute.Field != "events" {
		t.Fatalf("expected field events, got %q", ute.Field)
	}

	if _, err := DeriveSchema(reflect.TypeOf(0)); !errors.As(err, &ute) {
		t.Fatalf("expected UnsupportedTypeError for int, got %v", err)
	}
}

func TestFluentSettersAndIgnoredMethods(t *testing.T) {
	typ := typeOf[Fluent]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"count", "name"}, s.FieldNames()); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}
	f, err := create([]any{3, "n"})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.(*Fluent); got.count != 3 || got.name != "n" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestPromotedMethodsAndOverrides(t *testing.T) {
	s, err := DeriveSchema(typeOf[Derived]())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"created", "id", "label"}, s.FieldNames()); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
	created, _ := s.FieldByName("created")
	if created.Type.TypeName != schema.DateTime {
		t.Fatalf("expected the outer GetCreated to win, got %s", created.Type)
	}
}

func TestCreatorCoercion(t *testing.T) {
	typ := typeOf[Person]()
	s, _ := DeriveSchema(typ)
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}

	ok := [][]any{
		{int64(7), "x"},
		{float64(7), "x"},
		{utils.Ptr(int32(7)), utils.Ptr("x")},
		{uint8(7), nil},
	}
	for _, vals := range ok {
		if _, err := create(vals); err != nil {
			t.Errorf("%v: %v", vals, err)
		}
	}

	p, err := create([]any{int16(7), nil})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.(*Person); got.id != 7 || got.name != "" {
		t.Fatalf("unexpected %+v", got)
	}

	bad := [][]any{
		{int64(1) << 40, "x"},
		{7.5, "x"},
		{nil, "x"},
		{"7", "x"},
		{uint64(1) << 63, "x"},
		{int32(7), 7},
	}
	for _, vals := range bad {
		_, err := create(vals)
		var tme *TypeMismatchError
		if !errors.As(err, &tme) {
			t.Errorf("%v: expected TypeMismatchError, got %v", vals, err)
		}
	}

	if _, err := create([]any{int32(7)}); !errors.Is(err, ErrValueCount) || !utils.IsPermanent(err) {
		t.Fatalf("expected permanent ErrValueCount, got %v", err)
	}
}

func TestCreatorCoercesCollections(t *testing.T) {
	typ := typeOf[Order]()
	s, _ := DeriveSchema(typ)
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}

	vals := make([]any, s.Len())
	vals[s.IndexOf("tags")] = []any{"a", "b"}
	vals[s.IndexOf("attrs")] = map[string]any{"x": float64(1)}
	vals[s.IndexOf("created")] = "2022-12-30T10:00:00Z"
	vals[s.IndexOf("id")] = float64(42)
	vals[s.IndexOf("paid")] = true
	vals[s.IndexOf("ratio")] = float64(0.5)
	vals[s.IndexOf("discount")] = float64(0.25)

	o, err := create(vals)
	if err != nil {
		t.Fatal(err)
	}
	order := o.(*Order)
	if diff := cmp.Diff([]string{"a", "b"}, order.tags); diff != "" {
		t.Fatalf("tags (-want +got):\n%s", diff)
	}
	if order.attrs["x"] != 1 || order.id != 42 || *order.discount != 0.25 {
		t.Fatalf("unexpected %+v", order)
	}
	if !order.created.Equal(time.Date(2022, 12, 30, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created %s", order.created)
	}

	vals[s.IndexOf("tags")] = []any{"a", 1}
	_, err = create(vals)
	var tme *TypeMismatchError
	if !errors.As(err, &tme) || tme.Field != "tags" {
		t.Fatalf("expected mismatch on tags, got %v", err)
	}
}

func TestNoDefaultConstructor(t *testing.T) {
	_, err := MakeCreator(reflect.TypeOf(0), nil)
	var ndc *NoDefaultConstructorError
	if !errors.As(err, &ndc) {
		t.Fatalf("expected NoDefaultConstructorError, got %v", err)
	}
	_, err = MakeCreator(reflect.TypeOf((*error)(nil)).Elem(), nil)
	if !errors.As(err, &ndc) {
		t.Fatalf("expected NoDefaultConstructorError for interface, got %v", err)
	}
}

func TestCreatorRejectsForeignSetters(t *testing.T) {
	s, _ := DeriveSchema(typeOf[Person]())
	setters, err := BindSetters(typeOf[Person](), s)
	if err != nil {
		t.Fatal(err)
	}
	_, err = MakeCreator(typeOf[Account](), setters)
	var ndc *NoDefaultConstructorError
	if !errors.As(err, &ndc) || !utils.IsPermanent(err) {
		t.Fatalf("expected NoDefaultConstructorError, got %v", err)
	}
}

func TestCreatorAllocatesFreshInstances(t *testing.T) {
	typ := typeOf[Person]()
	s, _ := DeriveSchema(typ)
	setters, _ := BindSetters(typ, s)
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := create([]any{int32(1), "a"})
	b, _ := create([]any{int32(2), "b"})
	if a == b || a.(*Person).id != 1 || b.(*Person).id != 2 {
		t.Fatalf("instances shared: %+v %+v", a, b)
	}
}

func TestGetterRejectsWrongInstance(t *testing.T) {
	typ := typeOf[Person]()
	s, _ := DeriveSchema(typ)
	getters, _ := BindGetters(typ, s)
	if _, err := getters.Extract(&Account{}); !errors.Is(err, ErrInstanceType) {
		t.Fatalf("expected ErrInstanceType, got %v", err)
	}
	if _, err := getters.Extract((*Person)(nil)); !errors.Is(err, ErrNilInstance) {
		t.Fatalf("expected ErrNilInstance, got %v", err)
	}
}

// plainNames binds methods named after the field with no prefix: Name() and
// WithName(v).
func plainNames(owner reflect.Type, m reflect.Method) (Accessor, bool) {
	mt := m.Type
	if x, ok := strings.CutPrefix(m.Name, "With"); ok && x != "" && mt.NumIn() == 2 && mt.NumOut() == 0 {
		return Accessor{Field: utils.LowerFirst(x), Kind: SetterKind}, true
	}
	if mt.NumIn() == 1 && mt.NumOut() == 1 && m.Name != "String" {
		return Accessor{Field: utils.LowerFirst(m.Name), Kind: GetterKind}, true
	}
	return Accessor{}, false
}

type Plain struct {
	name string
}

func (p *Plain) Name() string { return p.name }
func (p *Plain) WithName(name string) { p.name = name }

func TestCustomClassifier(t *testing.T) {
	b := NewBinder(WithClassifier(plainNames))
	typ := typeOf[Plain]()
	s, err := b.DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"name"}, s.FieldNames()); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
	getters, err := b.BindGetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	setters, err := b.BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}
	p, err := create([]any{"plain"})
	if err != nil {
		t.Fatal(err)
	}
	vals, err := getters.Extract(p)
	if err != nil {
		t.Fatal(err)
	}
	if vals[0] != "plain" {
		t.Fatalf("unexpected %v", vals)
	}

	// the default convention sees nothing on Plain
	s, err = DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty schema, got %s", s)
	}
}

func TestEmbeddedPointer(t *testing.T) {
	typ := typeOf[Pooled]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"id", "label"}, s.FieldNames()); diff != "" {
		t.Fatalf("fields (-want +got):\n%s", diff)
	}
	getters, err := BindGetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	create, err := MakeCreator(typ, setters)
	if err != nil {
		t.Fatal(err)
	}

	obj, err := create([]any{int32(7), "x"})
	if err != nil {
		t.Fatal(err)
	}
	if p := obj.(*Pooled); p.Shared == nil || p.id != 7 || p.label != "x" {
		t.Fatalf("unexpected %+v", p)
	}
	vals, err := getters.Extract(obj)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{int32(7), "x"}, vals); diff != "" {
		t.Fatalf("values (-want +got):\n%s", diff)
	}

	// a zero Pooled has no Shared to read from or write to
	_, err = getters.Extract(Pooled{label: "x"})
	if !errors.Is(err, ErrAccessorPanic) || !utils.IsPermanent(err) {
		t.Fatalf("expected ErrAccessorPanic, got %v", err)
	}
	if err := setters[0].Set(&Pooled{}, int32(1)); !errors.Is(err, ErrAccessorPanic) {
		t.Fatalf("expected ErrAccessorPanic, got %v", err)
	}
}

func TestUnexportedEmbeddedPointer(t *testing.T) {
	typ := typeOf[Hidden]()
	s, err := DeriveSchema(typ)
	if err != nil {
		t.Fatal(err)
	}
	setters, err := BindSetters(typ, s)
	if err != nil {
		t.Fatal(err)
	}
	_, err = MakeCreator(typ, setters)
	var ndc *NoDefaultConstructorError
	if !errors.As(err, &ndc) {
		t.Fatalf("expected NoDefaultConstructorError, got %v", err)
	}
}

func TestUnsignedFieldTypes(t *testing.T) {
	s, err := DeriveSchema(typeOf[Counters]())
	if err != nil {
		t.Fatal(err)
	}
	expected := []schema.FieldType{
		schema.UnsignedOf(schema.Byte),
		schema.UnsignedOf(schema.Int16),
		schema.Primitive(schema.Int32),
		schema.UnsignedOf(schema.Int64),
	}
	for i, f := range s.Fields() {
		if !f.Type.Equals(expected[i]) {
			t.Errorf("%s: expected %s, got %s", f.Name, expected[i], f.Type)
		}
	}
	if got := s.Field(0).Type.String(); got != "BYTE UNSIGNED NOT NULL" {
		t.Fatalf("unexpected %s", got)
	}
}
