// Package cursors renders where everyone else in a session is. Each
// peer publishes its selection into the presence store as anchors; the
// overlay on every other peer resolves those anchors against its own
// copy of the document and keeps one marker per remote peer.
package cursors

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/gdamore/tcell/v2"

	"collab/colorhash"
	"collab/config"
	"collab/doc"
	"collab/presence"
	"collab/widget"
)

var (
	// ErrMissingWidgetID rejects widgets without a stable id. The id
	// keys this widget's selection records inside the presence store,
	// so without one peers cannot tell two bound widgets apart.
	ErrMissingWidgetID = errors.New("cursors: widget has no id")

	// ErrUnsupportedWidget rejects widgets with no selection to share.
	ErrUnsupportedWidget = errors.New("cursors: widget does not expose a selection")
)

// Selection is the presence record one peer publishes for one widget.
// Anchors travel as the document's encoded form.
type Selection struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Active bool   `json:"active"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// Overlay drives the remote markers for one widget and publishes the
// local selection. Single-threaded like everything it touches.
type Overlay struct {
	doc   *doc.Document
	store *presence.Store
	field widget.TextField
	name  string

	markers map[int]*Marker

	cancels   []func()
	destroyed bool
}

// NewOverlay wires w into the session: remote presence updates move
// markers, local selection events publish anchors under w's id.
func NewOverlay(d *doc.Document, store *presence.Store, w widget.Widget, name string) (*Overlay, error) {
	if w.ID() == "" {
		return nil, ErrMissingWidgetID
	}
	field, ok := w.(widget.TextField)
	if !ok {
		return nil, ErrUnsupportedWidget
	}

	o := &Overlay{
		doc:     d,
		store:   store,
		field:   field,
		name:    name,
		markers: map[int]*Marker{},
	}
	o.cancels = append(o.cancels,
		store.OnUpdate(o.handleUpdate),
		field.On(widget.EventSelect, o.publishSelection),
		field.On(widget.EventBlur, o.publishInactive),
		field.On(widget.EventScroll, o.repositionAll),
	)

	// Announce name and color right away so peers can label us before
	// we ever touch the selection.
	o.publishInactive()
	return o, nil
}

// Destroy tears down every marker and subscription. Idempotent; the
// document, store and widget themselves are left untouched.
func (o *Overlay) Destroy() {
	if o.destroyed {
		return
	}
	o.destroyed = true
	for _, cancel := range o.cancels {
		cancel()
	}
	o.cancels = nil
	for id, m := range o.markers {
		m.destroy()
		delete(o.markers, id)
	}
}

func (o *Overlay) handleUpdate(u presence.Update) {
	for _, id := range u.Removed {
		if m, ok := o.markers[id]; ok {
			m.destroy()
			delete(o.markers, id)
		}
	}

	for peer, fields := range o.store.GetAll() {
		if peer == o.store.SelfID() {
			continue
		}
		raw, ok := fields[o.field.ID()]
		if !ok {
			continue
		}
		var sel Selection
		if err := json.Unmarshal(raw, &sel); err != nil {
			continue
		}

		m, exists := o.markers[peer]
		if !exists {
			// A peer that never activated a selection gets no marker.
			if !sel.Active {
				continue
			}
			m = newMarker(peer)
			o.markers[peer] = m
		}
		if !sel.Active {
			m.ClearOffsets()
			m.Hide()
			continue
		}

		m.UpdateLabel(sel.Name, sel.Color)
		if sel.Start == "" || sel.End == "" {
			m.Hide()
			continue
		}
		start, ok := o.doc.ResolveAnchor(doc.Anchor(sel.Start))
		if !ok {
			m.Hide()
			continue
		}
		end, ok := o.doc.ResolveAnchor(doc.Anchor(sel.End))
		if !ok {
			m.Hide()
			continue
		}
		m.SetOffsets(start, end)
		m.Reposition(o.field)
	}
}

// publishSelection shares the current local selection as anchors.
func (o *Overlay) publishSelection() {
	start, end, _ := o.field.Selection()
	sel := Selection{
		Name:   o.name,
		Color:  colorhash.ForInt(o.store.SelfID()).Hex(),
		Active: true,
		Start:  string(o.doc.CreateAnchor(start)),
		End:    string(o.doc.CreateAnchor(end)),
	}
	o.store.SetLocalField(o.field.ID(), sel)
}

// publishInactive withdraws the selection without dropping the record,
// so peers keep the name and color.
func (o *Overlay) publishInactive() {
	sel := Selection{
		Name:   o.name,
		Color:  colorhash.ForInt(o.store.SelfID()).Hex(),
		Active: false,
	}
	o.store.SetLocalField(o.field.ID(), sel)
}

// repositionAll refreshes marker geometry after a local scroll. No
// presence traffic: nothing about the selections changed.
func (o *Overlay) repositionAll() {
	for _, m := range o.markers {
		if m.hasOffsets {
			m.Reposition(o.field)
		}
	}
}

// Markers returns the live markers in stable peer order, for rendering.
func (o *Overlay) Markers() []*Marker {
	ids := make([]int, 0, len(o.markers))
	for id := range o.markers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Marker, len(ids))
	for i, id := range ids {
		out[i] = o.markers[id]
	}
	return out
}

// Render paints every visible marker over the already-rendered field.
func (o *Overlay) Render(screen tcell.Screen, theme *config.ColorScheme) {
	for _, m := range o.Markers() {
		m.Render(screen, theme)
	}
}
