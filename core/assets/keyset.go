// Package assets — ordered key set with deduplication.
// Keeps first-seen order so reconciliation runs deterministically.
package assets

// KeySet is an insertion-ordered set of storage keys.
type KeySet struct {
	items []string
	seen  map[string]bool
}

// NewKeySet creates a KeySet holding keys, skipping empties and duplicates.
func NewKeySet(keys ...string) *KeySet {
	s := &KeySet{seen: make(map[string]bool)}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add inserts key if it hasn't been seen before.
func (s *KeySet) Add(key string) {
	if key == "" || s.seen[key] {
		return
	}
	s.seen[key] = true
	s.items = append(s.items, key)
}

// Has reports whether key is in the set.
func (s *KeySet) Has(key string) bool {
	return s.seen[key]
}

// Remove drops key, keeping the order of the rest.
func (s *KeySet) Remove(key string) {
	if !s.seen[key] {
		return
	}
	delete(s.seen, key)
	for i, k := range s.items {
		if k == key {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	return len(s.items)
}

// All returns the keys in first-seen order.
func (s *KeySet) All() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Minus returns the keys of s that are not in other, in s's order.
func (s *KeySet) Minus(other *KeySet) []string {
	var out []string
	for _, k := range s.items {
		if other == nil || !other.Has(k) {
			out = append(out, k)
		}
	}
	return out
}
