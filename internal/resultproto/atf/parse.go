package atf

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"kyua/internal/kyuaerr"
)

// maxLineBytes caps the result-file scanner's buffer. The original bounds
// the result file read to a fixed buffer and treats an overlong line as a
// parse error rather than reading unbounded memory.
const maxLineBytes = 1 << 20

// lineRegex matches "<tag>" or "<tag>: <reason>" or "<tag>(<int>): <reason>".
var lineRegex = regexp.MustCompile(`^([a-z_]+)(\((-?\d+)\))?(?::\s(.*))?$`)

var tagsByName = map[string]Tag{
	"broken":           TagBroken,
	"expected_death":   TagExpectedDeath,
	"expected_exit":    TagExpectedExit,
	"expected_failure": TagExpectedFailure,
	"expected_signal":  TagExpectedSignal,
	"expected_timeout": TagExpectedTimeout,
	"failed":           TagFailed,
	"passed":           TagPassed,
	"skipped":          TagSkipped,
}

// Parse reads a result file from r and decodes its single line. A missing
// file is the caller's concern (§4.4 step 5 treats it as legitimate input
// producing a Broken result); Parse itself only handles malformed content.
//
// §4.3.1 requires exactly one line terminated by exactly one newline: a
// test program that crashes mid-write and leaves a line with no trailing
// "\n" must be flagged Broken rather than having its content trusted, so
// Parse reads the raw bytes itself instead of using bufio.Scanner (whose
// final, unterminated chunk is indistinguishable from a properly
// terminated one).
func Parse(r io.Reader) (*RawResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxLineBytes+1))
	if err != nil {
		return nil, kyuaerr.WrapFormatError("result file read error", err)
	}

	if len(data) == 0 {
		return nil, kyuaerr.NewFormatError("result file is empty")
	}
	if len(data) > maxLineBytes {
		return nil, kyuaerr.NewFormatError("result file line too long")
	}
	if data[len(data)-1] != '\n' {
		return nil, kyuaerr.NewFormatError("result file is missing a trailing newline")
	}

	content := string(data[:len(data)-1])
	if strings.Contains(content, "\n") {
		return nil, kyuaerr.NewFormatError("result file contains more than one line")
	}

	return ParseLine(content)
}

// ParseLine decodes a single result-file line without consuming a stream,
// used directly by tests and by Parse.
func ParseLine(line string) (*RawResult, error) {
	matches := lineRegex.FindStringSubmatch(line)
	if matches == nil {
		return nil, kyuaerr.NewFormatError("malformed result line: " + strconv.Quote(line))
	}

	tagName, argText, reasonText := matches[1], matches[3], matches[4]

	tag, ok := tagsByName[tagName]
	if !ok {
		return nil, kyuaerr.NewFormatError("unknown result tag: " + strconv.Quote(tagName))
	}

	result := &RawResult{Tag: tag}

	if argText != "" {
		if tag != TagExpectedExit && tag != TagExpectedSignal {
			return nil, kyuaerr.NewFormatError(tag.String() + " does not accept an integer argument")
		}
		n, err := strconv.Atoi(argText)
		if err != nil {
			return nil, kyuaerr.WrapFormatError("invalid integer argument in result line", err)
		}
		result.Arg = n
		result.HasArg = true
	}

	switch tag {
	case TagPassed:
		if reasonText != "" {
			return nil, kyuaerr.NewFormatError("passed must not carry a reason")
		}
	default:
		if reasonText == "" {
			return nil, kyuaerr.NewFormatError(tag.String() + " requires a non-empty reason")
		}
		if strings.Contains(reasonText, "\n") {
			return nil, kyuaerr.NewFormatError(tag.String() + " reason must not contain a newline")
		}
		result.Reason = reasonText
	}

	return result, nil
}
