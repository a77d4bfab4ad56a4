package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAll_SingleDirective(t *testing.T) {
	text := `Let me work that out.

<tool>calculate</tool>
<params>{"operation": "add", "a": 5, "b": 3}</params>`

	got := All(text)
	want := []Directive{
		{Name: "calculate", Params: map[string]any{"operation": "add", "a": 5.0, "b": 3.0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestAll_MultipleDirectivesInSourceOrder(t *testing.T) {
	text := `First store it:
<tool>storage-set</tool>
<params>{"key": "city", "value": "Barcelona"}</params>
then read it back:
<tool>storage-get</tool><params>{"key": "city"}</params>`

	got := All(text)
	want := []Directive{
		{Name: "storage-set", Params: map[string]any{"key": "city", "value": "Barcelona"}},
		{Name: "storage-get", Params: map[string]any{"key": "city"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All() mismatch (-want +got):\n%s", diff)
	}
}

func TestAll_MalformedJSONIsSkipped(t *testing.T) {
	text := `<tool>calculate</tool>
<params>{"operation": "add", "a": }</params>
<tool>storage-get</tool>
<params>{"key": "city"}</params>`

	got := All(text)
	want := []Directive{
		{Name: "storage-get", Params: map[string]any{"key": "city"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("All() should skip the malformed directive (-want +got):\n%s", diff)
	}
}

func TestAll_PlainProseHasNoDirectives(t *testing.T) {
	if got := All("The answer is 8. No tools needed."); len(got) != 0 {
		t.Errorf("All() = %v, want none", got)
	}
}

func TestAll_UnclosedParamsIsNotADirective(t *testing.T) {
	if got := All(`<tool>calculate</tool><params>{"a": 1`); len(got) != 0 {
		t.Errorf("All() = %v, want none for unclosed params", got)
	}
}

func TestScanner_StreamingEmitsExactlyOnce(t *testing.T) {
	chunks := []string{
		"Let me check. <to",
		"ol>storage-get</tool>\n<par",
		`ams>{"key": "ci`,
		`ty"}</params> and also <tool>calculate</tool>`,
		`<params>{"operation": "multiply", "a": 6, "b": 7}</params> done.`,
	}

	var s Scanner
	var got []Directive
	for _, chunk := range chunks {
		s.Write(chunk)
		got = append(got, s.Next()...)
	}

	want := []Directive{
		{Name: "storage-get", Params: map[string]any{"key": "city"}},
		{Name: "calculate", Params: map[string]any{"operation": "multiply", "a": 6.0, "b": 7.0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("streamed extraction mismatch (-want +got):\n%s", diff)
	}

	// Re-running on the grown buffer must not re-emit consumed directives.
	if rest := s.Next(); len(rest) != 0 {
		t.Errorf("Next() after consumption = %v, want none", rest)
	}
}

func TestScanner_PendingDirectiveCompletesLater(t *testing.T) {
	var s Scanner
	s.Write(`<tool>storage-set</tool><params>{"key": "k",`)
	if got := s.Next(); len(got) != 0 {
		t.Fatalf("incomplete directive emitted early: %v", got)
	}

	s.Write(` "value": "v"}</params>`)
	got := s.Next()
	want := []Directive{
		{Name: "storage-set", Params: map[string]any{"key": "k", "value": "v"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("completed directive mismatch (-want +got):\n%s", diff)
	}
}
