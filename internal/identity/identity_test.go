package identity

import (
	"strings"
	"testing"
)

func TestNewIDShapeAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID()
		if len(id) != 24 {
			t.Fatalf("expected 24 hex digits, got %d (%q)", len(id), id)
		}
		for _, r := range id {
			if !strings.ContainsRune("0123456789abcdef", r) {
				t.Fatalf("id %q contains non-hex rune %q", id, r)
			}
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = struct{}{}
	}
}

func TestValidateName(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Alice", "Alice", false},
		{"  Bob  ", "Bob", false},
		{"", "", true},
		{"   ", "", true},
		{strings.Repeat("a", 32), strings.Repeat("a", 32), false},
		{strings.Repeat("a", 33), "", true},
		{"Bob S", "Bob S", false},
		{"Bob_S-1.2", "Bob_S-1.2", false},
		{"<script>", "", true},
		{"名前", "", true},
	}
	for _, c := range cases {
		got, err := ValidateName(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ValidateName(%q): expected error, got %q", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateName(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ValidateName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestValidateChat(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"hello", false},
		{"line one\nline two", false},
		{"carriage\rreturn", false},
		{"", true},
		{strings.Repeat("x", 500), false},
		{strings.Repeat("x", 501), true},
		{"bad\x00null", true},
		{"bad\x0bvtab", true},
		{"bad\x7fdel", true},
	}
	for _, c := range cases {
		_, err := ValidateChat(c.in)
		if c.wantErr != (err != nil) {
			t.Errorf("ValidateChat(%q): err=%v, wantErr=%v", c.in, err, c.wantErr)
		}
	}
}

func TestParsePrivatePrefixSimple(t *testing.T) {
	name, body, ok := ParsePrivatePrefix("@Bob hi")
	if !ok || name != "Bob" || body != "hi" {
		t.Fatalf("got name=%q body=%q ok=%v", name, body, ok)
	}
}

func TestParsePrivatePrefixQuoted(t *testing.T) {
	name, body, ok := ParsePrivatePrefix(`@"Bob S" hi there`)
	if !ok || name != "Bob S" || body != "hi there" {
		t.Fatalf("got name=%q body=%q ok=%v", name, body, ok)
	}
}

func TestReplyPrefixMustBeCheckedBeforeParsing(t *testing.T) {
	text := "@reply [Bob • 10:00]\nsome text"
	if !strings.HasPrefix(text, ReplyPrefix) {
		t.Fatal("test text does not start with the reply prefix")
	}
	// ParsePrivatePrefix has no special case for replies, so it would
	// happily parse "reply" as an addressee name. Callers MUST check
	// ReplyPrefix themselves before invoking the parser, per its doc
	// comment.
	name, body, ok := ParsePrivatePrefix(text)
	if !ok || name != "reply" {
		t.Fatalf("got name=%q body=%q ok=%v", name, body, ok)
	}
}

func TestParsePrivatePrefixNoMatch(t *testing.T) {
	cases := []string{"hello", "@", "@Bob", `@"unterminated`, `@"" body`, "@ ", "@name "}
	for _, c := range cases {
		if _, _, ok := ParsePrivatePrefix(c); ok {
			t.Errorf("ParsePrivatePrefix(%q): expected no match", c)
		}
	}
}
