package bean

import "time"

type Person struct {
	id   int32
	name string
}

func (p *Person) GetId() int32 { return p.id }
func (p *Person) SetId(id int32) { p.id = id }
func (p *Person) GetName() string { return p.name }
func (p *Person) SetName(name string) { p.name = name }

type Account struct {
	active bool
}

func (a *Account) IsActive() bool { return a.active }
func (a *Account) SetActive(active bool) { a.active = active }

type ReadOnly struct {
	foo string
}

func (r *ReadOnly) GetFoo() string { return r.foo }

type Ambiguous struct{}

func (a *Ambiguous) GetFoo() string { return "" }
func (a *Ambiguous) IsFoo() bool { return false }

type Node struct {
	next *Node
}

func (n *Node) GetNext() *Node { return n.next }
func (n *Node) SetNext(next *Node) { n.next = next }

type Left struct{ right Right }

func (l *Left) GetRight() Right { return l.right }

type Right struct{ left *Left }

func (r *Right) GetLeft() *Left { return r.left }

type Fluent struct {
	name  string
	count int
}

func (f *Fluent) GetName() string { return f.name }
func (f *Fluent) SetName(name string) *Fluent { f.name = name; return f }
func (f *Fluent) GetCount() int { return f.count }
func (f *Fluent) SetCount(count int) Fluent { f.count = count; return *f }
func (f *Fluent) SetIgnored(v int) error { return nil }
func (f *Fluent) Get() string { return "" }
func (f *Fluent) Is() bool { return false }
func (f *Fluent) IsNamed() string { return "" }
func (f *Fluent) GetWith(arg int) string { return "" }
func (f *Fluent) String() string { return f.name }

type Base struct {
	id      string
	created int64
}

func (b *Base) GetId() string { return b.id }
func (b *Base) SetId(id string) { b.id = id }
func (b Base) GetCreated() int64 { return b.created }
func (b *Base) SetCreated(c int64) { b.created = c }

type Derived struct {
	Base
	created time.Time
	label   string
}

func (d *Derived) GetCreated() time.Time { return d.created }
func (d *Derived) SetCreated(c time.Time) { d.created = c }
func (d *Derived) GetLabel() string { return d.label }
func (d *Derived) SetLabel(l string) { d.label = l }

type Address struct {
	street string
	zip    int32
}

func (a *Address) GetStreet() string { return a.street }
func (a *Address) SetStreet(s string) { a.street = s }
func (a *Address) GetZip() int32 { return a.zip }
func (a *Address) SetZip(z int32) { a.zip = z }

type Order struct {
	id       int64
	tags     []string
	attrs    map[string]int32
	note     *string
	discount *float32
	shipping *Address
	billing  Address
	created  time.Time
	ratio    float64
	raw      []byte
	paid     bool
	lines    []Address
}

func (o *Order) GetId() int64 { return o.id }
func (o *Order) SetId(id int64) { o.id = id }
func (o *Order) GetTags() []string { return o.tags }
func (o *Order) SetTags(t []string) { o.tags = t }
func (o *Order) GetAttrs() map[string]int32 { return o.attrs }
func (o *Order) SetAttrs(a map[string]int32) { o.attrs = a }
func (o *Order) GetNote() *string { return o.note }
func (o *Order) SetNote(n *string) { o.note = n }
func (o *Order) GetDiscount() *float32 { return o.discount }
func (o *Order) SetDiscount(d *float32) { o.discount = d }
func (o *Order) GetShipping() *Address { return o.shipping }
func (o *Order) SetShipping(a *Address) { o.shipping = a }
func (o *Order) GetBilling() Address { return o.billing }
func (o *Order) SetBilling(a Address) { o.billing = a }
func (o *Order) GetCreated() time.Time { return o.created }
func (o *Order) SetCreated(t time.Time) { o.created = t }
func (o *Order) GetRatio() float64 { return o.ratio }
func (o *Order) SetRatio(r float64) { o.ratio = r }
func (o *Order) GetRaw() []byte { return o.raw }
func (o *Order) SetRaw(b []byte) { o.raw = b }
func (o *Order) IsPaid() bool { return o.paid }
func (o *Order) SetPaid(p bool) { o.paid = p }
func (o *Order) GetLines() []Address { return o.lines }
func (o *Order) SetLines(l []Address) { o.lines = l }

type WithChannel struct{}

func (w *WithChannel) GetEvents() chan int { return nil }

type Shared struct {
	id int32
}

func (s *Shared) GetId() int32 { return s.id }
func (s *Shared) SetId(id int32) { s.id = id }

// Pooled gets id and its accessors through an embedded pointer
type Pooled struct {
	*Shared
	label string
}

func (p *Pooled) GetLabel() string { return p.label }
func (p *Pooled) SetLabel(l string) { p.label = l }

type hiddenID struct {
	id int32
}

func (h *hiddenID) GetId() int32 { return h.id }
func (h *hiddenID) SetId(id int32) { h.id = id }

type Hidden struct {
	*hiddenID
}

type Counters struct {
	level  uint8
	port   uint16
	signed int32
	total  uint64
}

func (c *Counters) GetLevel() uint8 { return c.level }
func (c *Counters) SetLevel(l uint8) { c.level = l }
func (c *Counters) GetPort() uint16 { return c.port }
func (c *Counters) SetPort(p uint16) { c.port = p }
func (c *Counters) GetSigned() int32 { return c.signed }
func (c *Counters) SetSigned(s int32) { c.signed = s }
func (c *Counters) GetTotal() uint64 { return c.total }
func (c *Counters) SetTotal(t uint64) { c.total = t }
