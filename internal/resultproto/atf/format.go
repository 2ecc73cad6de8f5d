package atf

import (
	"strconv"
	"strings"

	"kyua/internal/kyuaerr"
)

// Format renders a RawResult back into result-file line form, the inverse
// of ParseLine. Reason strings with an embedded newline are rejected with a
// FormatError rather than emitting a corrupt file: the original engine
// enforces this operationally even though the result-file format itself
// never states it.
func Format(r *RawResult) (string, error) {
	if r.Tag != TagPassed && strings.Contains(r.Reason, "\n") {
		return "", kyuaerr.NewFormatError(r.Tag.String() + " reason must not contain a newline")
	}

	var b strings.Builder
	b.WriteString(r.Tag.String())
	if r.HasArg {
		b.WriteByte('(')
		b.WriteString(strconv.Itoa(r.Arg))
		b.WriteByte(')')
	}
	if r.Tag != TagPassed {
		b.WriteString(": ")
		b.WriteString(r.Reason)
	}
	return b.String(), nil
}
