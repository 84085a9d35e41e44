package dataset

// Mask is a per-row boolean selection over a Table.
type Mask []bool

// NewMask returns an all-false mask of length n.
func NewMask(n int) Mask {
	return make(Mask, n)
}

// Or returns the element-wise disjunction of m and o. Both masks must have the
// same length.
func (m Mask) Or(o Mask) Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] || o[i]
	}
	return out
}

// And returns the element-wise conjunction of m and o.
func (m Mask) And(o Mask) Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = m[i] && o[i]
	}
	return out
}

// Not returns the element-wise negation of m.
func (m Mask) Not() Mask {
	out := make(Mask, len(m))
	for i := range m {
		out[i] = !m[i]
	}
	return out
}

// Count returns the number of true entries.
func (m Mask) Count() int {
	n := 0
	for _, b := range m {
		if b {
			n++
		}
	}
	return n
}

// Any reports whether at least one entry is true.
func (m Mask) Any() bool {
	for _, b := range m {
		if b {
			return true
		}
	}
	return false
}
