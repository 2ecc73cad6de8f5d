// Package tap implements the streaming TAP (Test Anything Protocol) parser
// described in §4.3.4: a three-state machine over an input line stream,
// grounded on the teacher's pytest_parser.go state-machine shape
// (PytestParserState enum, a regex table, one handler per state) but
// streaming rather than buffering the whole output, since a TAP program's
// body is potentially unbounded.
package tap

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// State is the parser's current position in the TAP grammar.
type State int

const (
	ReadingHeader State = iota
	ReadingBody
	Done
)

var (
	planRegex  = regexp.MustCompile(`^(\d+)\.\.(\d+)(?:\s*#\s*(?i:skip)\s*(.*))?$`)
	okRegex    = regexp.MustCompile(`^ok\b`)
	notOkRegex = regexp.MustCompile(`^not ok\b`)
	bailRegex  = regexp.MustCompile(`^Bail out!`)
)

// Summary is the complete outcome of parsing a TAP program's output.
type Summary struct {
	ParseError       string
	BailOut          bool
	FirstIndex       int
	LastIndex        int
	AllSkippedReason string
	OkCount          int
	NotOkCount       int
}

// Parser feeds lines through the TAP state machine one at a time.
type Parser struct {
	state   State
	summary Summary
	sawPlan bool
}

// NewParser creates a Parser positioned at ReadingHeader.
func NewParser() *Parser {
	return &Parser{state: ReadingHeader}
}

// State reports the parser's current state.
func (p *Parser) State() State { return p.state }

// Feed processes one line of TAP output. Echo receives every line the
// parser does not itself interpret as a plan/ok/not-ok/bail-out directive,
// mirroring §4.3.4's "any other line is echoed through to the caller's
// output stream but does not affect counters".
func (p *Parser) Feed(line string, echo func(string)) {
	if p.state == Done {
		return
	}

	switch {
	case planRegex.MatchString(line):
		p.handlePlan(line)

	case bailRegex.MatchString(line):
		p.summary.BailOut = true
		p.state = Done

	case okRegex.MatchString(line):
		p.state = ReadingBody
		p.summary.OkCount++

	case notOkRegex.MatchString(line):
		p.state = ReadingBody
		if strings.Contains(line, "TODO") || strings.Contains(line, "SKIP") {
			p.summary.OkCount++
		} else {
			p.summary.NotOkCount++
		}

	default:
		if echo != nil {
			echo(line)
		}
	}
}

func (p *Parser) handlePlan(line string) {
	if p.sawPlan {
		p.summary.ParseError = "Output includes two test plans"
		p.state = Done
		return
	}
	p.sawPlan = true

	matches := planRegex.FindStringSubmatch(line)
	first, _ := strconv.Atoi(matches[1])
	last, _ := strconv.Atoi(matches[2])
	skipReason := matches[3]
	hasSkip := strings.Contains(strings.ToLower(line), "skip")

	if last < first && !(hasSkip && first == 1 && last == 0) {
		p.summary.ParseError = "Reported plan range is reversed"
		p.state = Done
		return
	}

	p.summary.FirstIndex = first
	p.summary.LastIndex = last

	if hasSkip {
		if first == 1 && last == 0 {
			reason := strings.TrimSpace(skipReason)
			if reason == "" {
				reason = "No reason specified"
			}
			p.summary.AllSkippedReason = reason
		} else {
			p.summary.ParseError = "Plan SKIP directive used with a non-empty range"
			p.state = Done
			return
		}
	}

	p.state = ReadingBody
}

// Finish finalizes parsing at end of stream, checking the executed-count
// invariant when the run neither bailed out nor was entirely skipped.
func (p *Parser) Finish() Summary {
	if p.summary.ParseError == "" && !p.summary.BailOut && p.summary.AllSkippedReason == "" && p.sawPlan {
		expected := p.summary.LastIndex - p.summary.FirstIndex + 1
		actual := p.summary.OkCount + p.summary.NotOkCount
		if actual != expected {
			p.summary.ParseError = "Reported plan differs from actual executed tests"
		}
	}
	return p.summary
}

// Summarize streams r line by line through a fresh Parser and returns the
// final Summary, echoing unrecognized lines to echo (which may be nil).
func Summarize(r io.Reader, echo func(string)) (*Summary, error) {
	parser := NewParser()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		parser.Feed(scanner.Text(), echo)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	summary := parser.Finish()
	return &summary, nil
}
