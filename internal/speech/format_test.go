package speech

import (
	"strings"
	"testing"
)

func TestFormatNoFollowups(t *testing.T) {
	got := Format("  Paris is the capital.  ", nil)
	if got != "Paris is the capital." {
		t.Fatalf("Format() = %q, want trimmed answer only", got)
	}
}

func TestFormatSingleFollowup(t *testing.T) {
	got := Format("Paris is the capital.", []string{"What about Lyon?"})

	want := "Paris is the capital. " + Pause + " You could ask: 'What about Lyon?'. " + Pause + " What would you like to know?"
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
	if strings.Contains(got, ", or ") {
		t.Fatalf("single suggestion must not use an or connector: %q", got)
	}
}

func TestFormatManyFollowups(t *testing.T) {
	got := Format("X", []string{"A", "B", "C"})
	if !strings.Contains(got, "'A', 'B', or 'C'") {
		t.Fatalf("Format() = %q, want joined segment 'A', 'B', or 'C'", got)
	}
	if !strings.HasPrefix(got, "X "+Pause) {
		t.Fatalf("Format() = %q, want answer followed by pause marker", got)
	}
	if !strings.HasSuffix(got, "What would you like to know?") {
		t.Fatalf("Format() = %q, want closing prompt suffix", got)
	}
}

func TestFormatFiltersBlankFollowups(t *testing.T) {
	got := Format("X", []string{"", "   ", "\t\n", "Real question?"})
	if !strings.Contains(got, "'Real question?'") {
		t.Fatalf("Format() = %q, want the one real suggestion kept", got)
	}
	if strings.Contains(got, "''") {
		t.Fatalf("Format() = %q, must not quote empty suggestions", got)
	}
}

func TestFormatAllFollowupsExcluded(t *testing.T) {
	got := Format("Just the answer.", []string{"", "  ", "<>"})
	if got != "Just the answer." {
		t.Fatalf("Format() = %q, want answer unchanged when all suggestions excluded", got)
	}
}

func TestSanitizeSuggestion(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims whitespace", in: "  And Lyon?  ", want: "And Lyon?"},
		{name: "drops markup characters", in: "What <b>about</b> Lyon & Nice?", want: "What babout/b Lyon Nice?"},
		{name: "collapses inner whitespace", in: "a \n\t b", want: "a b"},
		{name: "empty stays empty", in: "   ", want: ""},
		{name: "drops single quotes to keep quoting intact", in: "What's next?", want: "Whats next?"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := SanitizeSuggestion(tc.in)
			if got != tc.want {
				t.Fatalf("SanitizeSuggestion(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
