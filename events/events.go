// Package events holds the bean types the rowbind server ingests out of the
// box. Embedding programs register their own types next to these.
package events

import (
	"fmt"
	"reflect"
	"time"

	"github.com/danthegoodman1/rowbind/registry"
)

// Types are registered by RegisterAll
var Types = []reflect.Type{
	reflect.TypeOf(Click{}),
	reflect.TypeOf(PageView{}),
}

type Geo struct {
	country string
	region  string
}

func (g *Geo) GetCountry() string { return g.country }
func (g *Geo) SetCountry(c string) { g.country = c }
func (g *Geo) GetRegion() string { return g.region }
func (g *Geo) SetRegion(r string) { g.region = r }

type Click struct {
	at        time.Time
	sessionID string
	page      string
	target    string
	geo       *Geo
	tags      []string
}

func (c *Click) GetAt() time.Time { return c.at }
func (c *Click) SetAt(t time.Time) { c.at = t }
func (c *Click) GetSessionID() string { return c.sessionID }
func (c *Click) SetSessionID(id string) { c.sessionID = id }
func (c *Click) GetPage() string { return c.page }
func (c *Click) SetPage(p string) { c.page = p }
func (c *Click) GetTarget() string { return c.target }
func (c *Click) SetTarget(t string) { c.target = t }
func (c *Click) GetGeo() *Geo { return c.geo }
func (c *Click) SetGeo(g *Geo) { c.geo = g }
func (c *Click) GetTags() []string { return c.tags }
func (c *Click) SetTags(tags []string) { c.tags = tags }

// PageView is one page load. DurationMS stays 0 until the page is left.
type PageView struct {
	at         time.Time
	sessionID  string
	page       string
	referrer   *string
	durationMS int64
	bounced    bool
	geo        *Geo
}

func (p *PageView) GetAt() time.Time { return p.at }
func (p *PageView) SetAt(t time.Time) { p.at = t }
func (p *PageView) GetSessionID() string { return p.sessionID }
func (p *PageView) SetSessionID(id string) { p.sessionID = id }
func (p *PageView) GetPage() string { return p.page }
func (p *PageView) SetPage(page string) { p.page = page }
func (p *PageView) GetReferrer() *string { return p.referrer }
func (p *PageView) SetReferrer(r *string) { p.referrer = r }
func (p *PageView) GetDurationMS() int64 { return p.durationMS }
func (p *PageView) SetDurationMS(ms int64) { p.durationMS = ms }
func (p *PageView) IsBounced() bool { return p.bounced }
func (p *PageView) SetBounced(b bool) { p.bounced = b }
func (p *PageView) GetGeo() *Geo { return p.geo }
func (p *PageView) SetGeo(g *Geo) { p.geo = g }

// RegisterAll derives the entries of Types in r.
func RegisterAll(r *registry.Registry) error {
	for _, t := range Types {
		if _, err := r.Get(t); err != nil {
			return fmt.Errorf("error registering %s: %w", t, err)
		}
	}
	return nil
}
