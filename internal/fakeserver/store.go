// internal/fakeserver/store.go

package fakeserver

import (
	"sync"
)

// Store is an in-memory document store keyed by collection path and id.
// Documents keep insertion order within a collection.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	order []string
	docs  map[string]map[string]any
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) coll(name string, create bool) *collection {
	c, ok := s.collections[name]
	if !ok && create {
		c = &collection{docs: make(map[string]map[string]any)}
		s.collections[name] = c
	}
	return c
}

// Get returns a copy of one document.
func (s *Store) Get(coll, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.coll(coll, false)
	if c == nil {
		return nil, false
	}
	doc, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	return copyDoc(doc), true
}

// List returns copies of every document in coll matching keep, in
// insertion order. A nil keep matches everything.
func (s *Store) List(coll string, keep func(map[string]any) bool) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c := s.coll(coll, false)
	if c == nil {
		return nil
	}
	out := make([]map[string]any, 0, len(c.order))
	for _, id := range c.order {
		doc := c.docs[id]
		if keep == nil || keep(doc) {
			out = append(out, copyDoc(doc))
		}
	}
	return out
}

// Put stores doc under id and reports whether it was newly created.
func (s *Store) Put(coll, id string, doc map[string]any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(coll, true)
	_, exists := c.docs[id]
	if !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = copyDoc(doc)
	return !exists
}

// Delete removes one document.
func (s *Store) Delete(coll, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(coll, false)
	if c == nil {
		return false
	}
	if _, ok := c.docs[id]; !ok {
		return false
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

// DeleteAll empties coll and returns how many documents were removed.
func (s *Store) DeleteAll(coll string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(coll, false)
	if c == nil {
		return 0
	}
	n := len(c.order)
	delete(s.collections, coll)
	return n
}

func copyDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
