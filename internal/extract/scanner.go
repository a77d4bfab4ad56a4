// Package extract parses tool-call directives out of model-generated text.
//
// A directive is a <tool>NAME</tool> tag pair followed (optionally after
// whitespace) by a <params>{...}</params> block holding a JSON object.
package extract

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"
)

// Directive is one tool invocation parsed out of model text.
type Directive struct {
	Name   string
	Params map[string]any
}

// The params body matches non-greedily up to the first closing tag.
var directiveRE = regexp.MustCompile(`(?s)<tool>([A-Za-z0-9_.-]+)</tool>\s*<params>(.*?)</params>`)

// All returns every well-formed directive in text, left to right.
// Occurrences with malformed JSON params are dropped with a diagnostic;
// they never abort the rest of the scan.
func All(text string) []Directive {
	var s Scanner
	s.Write(text)
	return s.Next()
}

// Scanner incrementally extracts directives from streamed model output.
// Write appends a fragment; Next returns the directives completed so far.
// The consumed-offset cursor guarantees each directive is surfaced exactly
// once across the scanner's lifetime, no matter how the input is chunked.
type Scanner struct {
	buf strings.Builder
	pos int
}

// Write appends a fragment of model output.
func (s *Scanner) Write(fragment string) {
	s.buf.WriteString(fragment)
}

// Next returns all directives completed since the previous call. A
// directive split across fragments stays pending until its closing
// </params> tag arrives.
func (s *Scanner) Next() []Directive {
	text := s.buf.String()

	var out []Directive
	for {
		loc := directiveRE.FindStringSubmatchIndex(text[s.pos:])
		if loc == nil {
			return out
		}

		name := text[s.pos+loc[2] : s.pos+loc[3]]
		raw := text[s.pos+loc[4] : s.pos+loc[5]]
		s.pos += loc[1]

		var params map[string]any
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			slog.Warn("Dropping directive with malformed params", "tool", name, "error", err)
			continue
		}
		out = append(out, Directive{Name: name, Params: params})
	}
}
