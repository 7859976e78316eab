// Package dedup suppresses resubmission of diary entries that were already
// sent in this process, or that repeat earlier entries of the same batch.
//
// Entries are matched by a content fingerprint (see Key) as well as by id.
// Two different entries sharing date, emotion and the first 50 UTF-16 code
// units of their event collide and only the first one is kept.
package dedup

import "unicode/utf16"

// eventPrefixLen is the number of UTF-16 code units of event taken into a Key.
// Keys must match the ones the web client computes, which counts in UTF-16:
// an emoji outside the BMP takes two units.
const eventPrefixLen = 50

// Key returns the content fingerprint of an entry.
func Key(date, emotion, event string) string {
	return date + "_" + emotion + "_" + prefix(event)
}

func prefix(event string) string {
	u := utf16.Encode([]rune(event))
	if len(u) <= eventPrefixLen {
		return event
	}
	// A cut through a surrogate pair leaves half a character, decoded as U+FFFD.
	return string(utf16.Decode(u[:eventPrefixLen]))
}

// Candidate is the view of an entry the filter needs.
type Candidate struct {
	ID      string
	Date    string
	Emotion string
	Event   string
}

// Key returns the candidate's fingerprint.
func (c Candidate) Key() string { return Key(c.Date, c.Emotion, c.Event) }

// Batch holds what a Select accepted, to be committed after a successful submission.
type Batch struct {
	IDs  []string
	Keys []string
}

// Len returns the number of accepted entries.
func (b Batch) Len() int { return len(b.IDs) }

// Filter carries the process-lifetime dedup state. It is not safe for
// concurrent use; callers serialize access.
type Filter struct {
	keys map[string]struct{}
	ids  map[string]struct{}
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{keys: map[string]struct{}{}, ids: map[string]struct{}{}}
}

// Select returns the subsequence of items that are neither known to f nor
// repeat an earlier item of the same call, in their original order.
// f itself is not modified; see Filter.Commit.
func Select[T any](f *Filter, items []T, view func(T) Candidate) ([]T, Batch) {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	var b Batch
	for _, it := range items {
		c := view(it)
		k := c.Key()
		if _, dup := f.keys[k]; dup {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		if _, done := f.ids[c.ID]; done {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, it)
		b.IDs = append(b.IDs, c.ID)
		b.Keys = append(b.Keys, k)
	}
	return out, b
}

// Commit records a submitted batch as processed.
func (f *Filter) Commit(b Batch) {
	for _, id := range b.IDs {
		f.ids[id] = struct{}{}
	}
	for _, k := range b.Keys {
		f.keys[k] = struct{}{}
	}
}

// Forget drops ids from the processed set. Fingerprints are kept.
func (f *Filter) Forget(ids ...string) {
	for _, id := range ids {
		delete(f.ids, id)
	}
}

// Reset clears all state.
func (f *Filter) Reset() {
	f.keys = map[string]struct{}{}
	f.ids = map[string]struct{}{}
}

// Processed reports whether id was committed.
func (f *Filter) Processed(id string) bool {
	_, ok := f.ids[id]
	return ok
}

// Size returns the number of processed ids and known fingerprints.
func (f *Filter) Size() (ids, keys int) {
	return len(f.ids), len(f.keys)
}
