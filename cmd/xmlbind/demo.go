package main

import "github.com/tidalcode/xmlbind"

// note is the demo type validate and format check documents against.
// Real embedders register their own types the same way: struct tags plus,
// optionally, XMLBindings for namespace control.
type note struct {
	ID       string   `xmlbind:"id,attr"`
	Title    string   `xmlbind:"title"`
	Tags     []string `xmlbind:"tag"`
	Priority *int     `xmlbind:"priority"`
}

func (note) XMLBindings() xmlbind.Bindings {
	return xmlbind.Bindings{Rename: "note"}
}
