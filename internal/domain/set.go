package domain

import "github.com/google/uuid"

// Sets of user ids are kept as slices so they map directly onto uuid[]
// columns and JSON arrays. Order is insertion order.

func contains(set []uuid.UUID, id uuid.UUID) bool {
	for _, v := range set {
		if v == id {
			return true
		}
	}
	return false
}

func add(set []uuid.UUID, id uuid.UUID) []uuid.UUID {
	if contains(set, id) {
		return set
	}
	return append(set, id)
}

func remove(set []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := set[:0:0]
	for _, v := range set {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(set []uuid.UUID) []uuid.UUID {
	if set == nil {
		return []uuid.UUID{}
	}
	return set
}

func clone(set []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, len(set))
	copy(out, set)
	return out
}
