// Package dataset holds the long-format table the cleaning engine operates on.
//
// A Table is an ordered set of rows over a fixed list of named columns. Tables
// are values: every operation returns a new Table and never mutates its
// receiver.
package dataset

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Kind is the dynamic type of a Cell.
type Kind int

const (
	// KindNull is a missing-value marker.
	KindNull Kind = iota
	// KindText is a raw string value.
	KindText
	// KindNumber is a float64 value produced by a cast.
	KindNumber
)

// String returns the kind name used in logs and errors.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Cell is a single table value. The zero Cell is Null.
type Cell struct {
	kind Kind
	text string
	num  float64
}

// Null returns the missing-value marker.
func Null() Cell { return Cell{} }

// Text wraps a raw string.
func Text(s string) Cell { return Cell{kind: KindText, text: s} }

// Number wraps a float64.
func Number(f float64) Cell { return Cell{kind: KindNumber, num: f} }

// Kind returns the dynamic type of the cell.
func (c Cell) Kind() Kind { return c.kind }

// IsNull reports whether the cell is the missing-value marker.
func (c Cell) IsNull() bool { return c.kind == KindNull }

// IsText reports whether the cell holds a string.
func (c Cell) IsText() bool { return c.kind == KindText }

// IsNumber reports whether the cell holds a float64.
func (c Cell) IsNumber() bool { return c.kind == KindNumber }

// String renders the cell. Null renders as the empty string and numbers use
// FormatNumber.
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return FormatNumber(c.num)
	default:
		return ""
	}
}

// Float casts the cell to a float64. Null casts to NaN.
func (c Cell) Float() (float64, error) {
	switch c.kind {
	case KindNumber:
		return c.num, nil
	case KindText:
		return ParseNumber(c.text)
	default:
		return math.NaN(), nil
	}
}

// Equal compares two cells by kind and value. NaN numbers are equal to each
// other so tables containing missing numeric values can be compared.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindText:
		return c.text == o.text
	case KindNumber:
		if math.IsNaN(c.num) && math.IsNaN(o.num) {
			return true
		}
		return c.num == o.num
	default:
		return true
	}
}

// ErrNotNumber is returned by ParseNumber when the text is not a number.
var ErrNotNumber = errors.New("not a number")

// ParseNumber parses s the way a permissive float cast does: surrounding
// whitespace is ignored and nan, inf and infinity are accepted in any case.
// Hex notation and digit separators are rejected.
func ParseNumber(s string) (float64, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, ErrNotNumber
	}
	body := strings.TrimLeft(t, "+-")
	if len(t)-len(body) > 1 {
		return 0, ErrNotNumber
	}
	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, "0x") || strings.Contains(body, "_") {
		return 0, ErrNotNumber
	}
	switch lower {
	case "nan":
		return math.NaN(), nil
	case "inf", "infinity":
		if strings.HasPrefix(t, "-") {
			return math.Inf(-1), nil
		}
		return math.Inf(1), nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return f, nil
		}
		return 0, ErrNotNumber
	}
	return f, nil
}

// FormatNumber renders f in the shortest round-tripping form. Integral values
// keep a trailing ".0" so numeric cells stay distinguishable from integer
// text once serialized.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case f == 0:
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(f)
	if abs >= 1e16 || abs < 1e-4 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
