package todo

// Item is a single TODO entry. Its position in the Store is its only identity.
type Item struct {
	Text string
}

// Store is the ordered list of items. It is not safe for concurrent use; the
// run loop owns it exclusively.
type Store struct {
	items []Item
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append adds text to the end of the list. Duplicates and any text are accepted.
func (s *Store) Append(text string) {
	s.items = append(s.items, Item{Text: text})
}

// Snapshot returns the item texts in insertion order. The slice is a copy.
func (s *Store) Snapshot() []string {
	texts := make([]string, len(s.items))
	for i, item := range s.items {
		texts[i] = item.Text
	}
	return texts
}

// Len reports the number of items.
func (s *Store) Len() int {
	return len(s.items)
}
