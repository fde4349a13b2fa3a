package knowledge

import (
	"errors"
)

// Store is an immutable, validated collection of documents. It is safe for
// concurrent use because nothing can modify it after New returns.
type Store struct {
	docs []Document
	byID map[string]int
}

// New validates docs and builds a Store. Validation is fail-fast: the first
// invalid or duplicate document aborts construction with a *DocumentError.
func New(docs []Document) (*Store, error) {
	s := &Store{
		docs: make([]Document, 0, len(docs)),
		byID: make(map[string]int, len(docs)),
	}
	for i, d := range docs {
		if err := d.Validate(); err != nil {
			return nil, &DocumentError{ID: d.ID, Index: i, Err: err}
		}
		if _, dup := s.byID[d.ID]; dup {
			return nil, &DocumentError{ID: d.ID, Index: i, Err: errors.New("duplicate id")}
		}
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, d.clone())
	}
	return s, nil
}

// Len returns the number of documents.
func (s *Store) Len() int {
	return len(s.docs)
}

// All returns copies of every document in load order.
func (s *Store) All() []Document {
	out := make([]Document, len(s.docs))
	for i, d := range s.docs {
		out[i] = d.clone()
	}
	return out
}

// Get returns a copy of the document with the given id.
func (s *Store) Get(id string) (Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Document{}, false
	}
	return s.docs[i].clone(), true
}

// Stats summarises the collection by discipline and culture.
type Stats struct {
	Documents    int
	ByDiscipline map[Discipline]int
	ByCulture    map[string]int
}

// Stats counts documents per discipline tag and per culture label.
func (s *Store) Stats() Stats {
	st := Stats{
		Documents:    len(s.docs),
		ByDiscipline: make(map[Discipline]int),
		ByCulture:    make(map[string]int),
	}
	for _, d := range s.docs {
		for _, disc := range d.Discipline {
			st.ByDiscipline[disc]++
		}
		for _, c := range d.Culture {
			st.ByCulture[c]++
		}
	}
	return st
}
