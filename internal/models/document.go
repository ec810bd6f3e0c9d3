package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Document is the canonical in-memory knowledge base: articles keyed by id,
// kept in the order they were read or added.
type Document struct {
	articles *orderedmap.OrderedMap[string, *Article]
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{articles: orderedmap.New[string, *Article]()}
}

// Len returns the number of articles.
func (d *Document) Len() int {
	return d.articles.Len()
}

// Get returns the article with the given id.
func (d *Document) Get(id string) (*Article, bool) {
	return d.articles.Get(id)
}

// Put adds or replaces an article, keyed by its id. Replacing keeps the
// original position.
func (d *Document) Put(a *Article) {
	d.articles.Set(a.ID, a)
}

// Articles returns all articles in document order.
func (d *Document) Articles() []*Article {
	out := make([]*Article, 0, d.articles.Len())
	for pair := d.articles.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// MarshalJSON writes the flat canonical shape: an object keyed by article id.
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.articles.MarshalJSON()
}
