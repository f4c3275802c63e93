package domain

// Mark is the user's annotation on a listing.
type Mark string

const (
	MarkNone      Mark = ""
	MarkLoved     Mark = "loved"
	MarkDiscarded Mark = "discarded"
)

// Valid reports whether m is a storable mark. MarkNone is never stored:
// clearing a mark deletes its key instead.
func (m Mark) Valid() bool {
	return m == MarkLoved || m == MarkDiscarded
}

// String returns the wire form of the mark ("" for none).
func (m Mark) String() string { return string(m) }

// ParseMark converts user or wire input into a Mark. Anything that is not
// loved or discarded (including "clear", "none" and "") maps to MarkNone.
func ParseMark(s string) Mark {
	switch Mark(s) {
	case MarkLoved:
		return MarkLoved
	case MarkDiscarded:
		return MarkDiscarded
	default:
		return MarkNone
	}
}

// Marks maps listing URL to its mark. It never contains MarkNone values.
type Marks map[string]Mark

// Get returns the mark for url, or MarkNone.
func (m Marks) Get(url string) Mark {
	if m == nil {
		return MarkNone
	}
	return m[url]
}

// Clone returns an independent copy.
func (m Marks) Clone() Marks {
	out := make(Marks, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge copies every valid entry of other into m, overwriting on collision.
// Invalid entries in other are skipped so m keeps its no-none invariant.
func (m Marks) Merge(other Marks) {
	for k, v := range other {
		if k == "" || !v.Valid() {
			continue
		}
		m[k] = v
	}
}

// Sanitize drops empty keys and non-storable values in place.
func (m Marks) Sanitize() Marks {
	for k, v := range m {
		if k == "" || !v.Valid() {
			delete(m, k)
		}
	}
	return m
}
