// Package castflags reports whether cells can be cast to numbers, datetimes or
// dates.
package castflags

import (
	"errors"
	"strings"
	"time"

	"github.com/vpclean/preprocess/pkg/dataset"
)

// ErrNotSequence is returned when a flag function is given no sequence.
var ErrNotSequence = errors.New("castflags: input is not a sequence")

// Datetime layouts carrying a time of day, tried in order.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// DateLayout is the only accepted layout for a date without time.
const DateLayout = "2006-01-02"

// Not-a-time spellings. They parse as a time type upstream but carry no
// instant, so they never count as castable.
var notATime = map[string]struct{}{
	"":    {},
	"nat": {},
	"nan": {},
}

// IsNumeric reports whether c can be cast to a number. Missing values count
// as numeric.
func IsNumeric(c dataset.Cell) bool {
	if !c.IsText() {
		return true
	}
	_, err := dataset.ParseNumber(c.String())
	return err == nil
}

// ParseDatetime parses s as a date with a time of day.
func ParseDatetime(s string) (time.Time, bool) {
	if isNotATime(s) {
		return time.Time{}, false
	}
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDate parses s as a date without a time of day.
func ParseDate(s string) (time.Time, bool) {
	if isNotATime(s) {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsDatetimeWithTime reports whether c is text holding a date and a time.
func IsDatetimeWithTime(c dataset.Cell) bool {
	if !c.IsText() {
		return false
	}
	_, ok := ParseDatetime(c.String())
	return ok
}

// IsDateOnly reports whether c is text holding a date with no time.
func IsDateOnly(c dataset.Cell) bool {
	if !c.IsText() {
		return false
	}
	_, ok := ParseDate(c.String())
	return ok
}

func isNotATime(s string) bool {
	_, ok := notATime[strings.ToLower(s)]
	return ok
}

// FlagNumeric maps IsNumeric over values.
func FlagNumeric(values []dataset.Cell) (dataset.Mask, error) {
	return flag(values, IsNumeric)
}

// FlagDatetime maps IsDatetimeWithTime over values.
func FlagDatetime(values []dataset.Cell) (dataset.Mask, error) {
	return flag(values, IsDatetimeWithTime)
}

// FlagDate maps IsDateOnly over values.
func FlagDate(values []dataset.Cell) (dataset.Mask, error) {
	return flag(values, IsDateOnly)
}

func flag(values []dataset.Cell, pred func(dataset.Cell) bool) (dataset.Mask, error) {
	if values == nil {
		return nil, ErrNotSequence
	}
	out := make(dataset.Mask, len(values))
	for i, c := range values {
		out[i] = pred(c)
	}
	return out, nil
}
