package schedule

import (
	"encoding/json"
	"fmt"
)

// Document is the serialized shape a graph round-trips through:
// {"data": [...tasks], "links": [...links]}. Extension fields on tasks
// survive the round trip byte for byte.
type Document struct {
	Data  []*Task `json:"data"`
	Links []*Link `json:"links"`
}

// ParseDocument decodes a schedule document. A malformed payload is a
// fatal error; nothing is partially constructed.
func ParseDocument(b []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	return &doc, nil
}

// NewGraphFromDocument builds a graph from a decoded document, validating
// the whole task and link set as one unit.
func NewGraphFromDocument(doc *Document) (*Graph, error) {
	g := NewGraph()
	if doc == nil {
		return g, nil
	}
	if err := g.appendBatch(doc.Data, doc.Links); err != nil {
		return nil, err
	}
	return g, nil
}

// Document serializes the graph. Tasks are deep-copied so the document
// stays stable if the graph is mutated afterwards.
func (g *Graph) Document() *Document {
	doc := &Document{
		Data:  make([]*Task, 0, len(g.tasks)),
		Links: make([]*Link, 0, len(g.links)),
	}
	for _, t := range g.tasks {
		doc.Data = append(doc.Data, t.Clone())
	}
	for _, l := range g.links {
		lc := *l
		doc.Links = append(doc.Links, &lc)
	}
	return doc
}
