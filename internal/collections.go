package internal

// Set is a collection of unique items that remembers insertion order,
// so queries built from it bind their parameters deterministically.
type Set[T comparable] struct {
	items map[T]struct{}
	order []T
}

// NewSet creates a set holding the given items.
func NewSet[T comparable](items ...T) *Set[T] {
	s := &Set[T]{items: make(map[T]struct{}, len(items))}
	for _, item := range items {
		s.Add(item)
	}
	return s
}

// Add inserts an item and reports whether it was new.
func (s *Set[T]) Add(item T) bool {
	if _, exists := s.items[item]; exists {
		return false
	}
	s.items[item] = struct{}{}
	s.order = append(s.order, item)
	return true
}

// AddAll inserts every item.
func (s *Set[T]) AddAll(items ...T) {
	for _, item := range items {
		s.Add(item)
	}
}

// Contains checks if an item exists in the set.
func (s *Set[T]) Contains(item T) bool {
	_, exists := s.items[item]
	return exists
}

// Size returns the number of items in the set.
func (s *Set[T]) Size() int {
	return len(s.order)
}

// ToSlice returns the items in insertion order.
func (s *Set[T]) ToSlice() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

// Distinct returns items with repeats removed, keeping first occurrences in order.
func Distinct[T comparable](items []T) []T {
	return NewSet(items...).ToSlice()
}

// FlatMap collects the results of fn over items, in order.
func FlatMap[T, U any](items []T, fn func(T) []U) []U {
	var out []U
	for _, item := range items {
		out = append(out, fn(item)...)
	}
	return out
}

// Without returns the items of a that are not in b, keeping order.
func Without[T comparable](a, b []T) []T {
	drop := NewSet(b...)
	out := make([]T, 0, len(a))
	for _, item := range a {
		if !drop.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}
