// Package protocol parses the newline-delimited telemetry sent by the
// device. A line starting with '#' carries samples, anything else is log
// output:
//
//	#temp=21.5 hum=40 3.3
//
// yields temp=21.5, hum=40 and a sample named "2" (its token position)
// with value 3.3.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Sentinel marks a data line.
const Sentinel = '#'

// Kind classifies a line.
type Kind int

const (
	// KindPoint is a data line. It is echoed to the log only in full-log mode.
	KindPoint Kind = iota
	// KindLog is free text output from the device.
	KindLog
)

func (k Kind) String() string {
	if k == KindPoint {
		return "point"
	}
	return "log"
}

// Sample is one named value from a data line.
type Sample struct {
	Name  string
	Value float64
}

// ParseError describes a keyed token whose value is not a number. The
// token is dropped; the rest of the line is still parsed.
type ParseError struct {
	Index int
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("token %d %q: %v", e.Index, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Result is the outcome of parsing one line.
type Result struct {
	Kind    Kind
	Line    string
	Samples []Sample
	Errors  []*ParseError
}

// IsDataLine reports whether line starts with the sentinel.
func IsDataLine(line string) bool {
	return len(line) > 0 && line[0] == Sentinel
}

// Parse classifies a single non-empty line without its trailing newline.
func Parse(line string) Result {
	if !IsDataLine(line) {
		return Result{Kind: KindLog, Line: line}
	}

	res := Result{Kind: KindPoint, Line: line, Samples: []Sample{}}
	for i, tok := range strings.Split(line[1:], " ") {
		switch strings.Count(tok, "=") {
		case 0:
			v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
			if err != nil {
				// Bare tokens that are not numbers are ignored.
				continue
			}
			res.Samples = append(res.Samples, Sample{Name: strconv.Itoa(i), Value: v})
		case 1:
			k, raw, _ := strings.Cut(tok, "=")
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				res.Errors = append(res.Errors, &ParseError{Index: i, Token: tok, Err: err})
				continue
			}
			res.Samples = append(res.Samples, Sample{Name: strings.TrimSpace(k), Value: v})
		}
	}
	return res
}
