// Package store keeps the latest diagnostics of every open document.
package store

import (
	"sync"

	"quill/internal/diag"
	"quill/internal/source"
)

type document struct {
	latest    int32 // newest revision announced via Begin
	committed int32 // revision of entries
	entries   []diag.Entry
}

// Store maps document URIs to their diagnostic entries. Entry lists are
// replaced, never mutated, so a reader always sees one list whole.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*document
}

// New returns an empty store.
func New() *Store {
	return &Store{docs: make(map[string]*document)}
}

// Begin records rev as the newest revision of uri. Older revisions are
// ignored.
func (s *Store) Begin(uri string, rev int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.docs[uri]
	if d == nil {
		s.docs[uri] = &document{latest: rev, committed: rev}
		return
	}
	if rev > d.latest {
		d.latest = rev
	}
}

// Put replaces the entries of uri unconditionally.
func (s *Store) Put(uri string, entries []diag.Entry) {
	list := clone(entries)
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.docs[uri]
	if d == nil {
		d = &document{}
		s.docs[uri] = d
	}
	d.entries = list
	d.committed = d.latest
}

// Commit replaces the entries of uri if rev is still the newest revision
// announced for it. It reports whether the entries were stored. A document
// dropped in the meantime is not resurrected.
func (s *Store) Commit(uri string, rev int32, entries []diag.Entry) bool {
	list := clone(entries)
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.docs[uri]
	if d == nil || rev < d.latest {
		return false
	}
	d.latest = rev
	d.committed = rev
	d.entries = list
	return true
}

// Latest returns the newest revision announced for uri.
func (s *Store) Latest(uri string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.docs[uri]
	if d == nil {
		return 0, false
	}
	return d.latest, true
}

// All returns the entries of uri. The slice is shared and must not be
// modified.
func (s *Store) All(uri string) []diag.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d := s.docs[uri]; d != nil {
		return d.entries
	}
	return nil
}

// ActionsCovering returns the actions of every entry whose range contains at,
// in entry order.
func (s *Store) ActionsCovering(uri string, at source.LineCol) []diag.Action {
	var out []diag.Action
	for _, e := range s.All(uri) {
		if e.Diagnostic.Range.Contains(at) {
			out = append(out, e.Actions...)
		}
	}
	return out
}

// ActionsOverlapping returns the actions of every entry that contains the
// start of r or intersects it.
func (s *Store) ActionsOverlapping(uri string, r source.Range) []diag.Action {
	var out []diag.Action
	start := r.Start.LineCol()
	for _, e := range s.All(uri) {
		if e.Diagnostic.Range.Contains(start) || e.Diagnostic.Range.Overlaps(r) {
			out = append(out, e.Actions...)
		}
	}
	return out
}

// Drop forgets uri.
func (s *Store) Drop(uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, uri)
}

func clone(entries []diag.Entry) []diag.Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]diag.Entry, len(entries))
	copy(out, entries)
	return out
}
