package token

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"seed scenario", "Hello, World!  HELLO", []string{"hello", "world", "hello"}},
		{"empty", "", []string{}},
		{"only punctuation", "...,,,!!!", []string{}},
		{"mixed whitespace", "a\tb\n c", []string{"a", "b", "c"}},
		{"truncates long token", strings.Repeat("x", 40), []string{strings.Repeat("x", MaxLen)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Tokenize([]byte(c.in))
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("Tokenize(%q) = %#v; want %#v", c.in, got, c.want)
			}
		})
	}
}

func TestTokenizeDiscardsOverflow(t *testing.T) {
	line := strings.Repeat("a ", MaxPerLine+50)
	got := Tokenize([]byte(line))
	if len(got) != MaxPerLine {
		t.Fatalf("expected %d tokens, got %d", MaxPerLine, len(got))
	}
}

func TestTokenizeInvariants(t *testing.T) {
	line := "The Quick-Brown_Fox jumps!! over ~~the~~ lazy.dog 123 ABC"
	for _, tok := range Tokenize([]byte(line)) {
		if len(tok) == 0 {
			t.Fatalf("empty token in output")
		}
		if len(tok) > MaxLen {
			t.Fatalf("token %q exceeds MaxLen", tok)
		}
		for i := 0; i < len(tok); i++ {
			b := tok[i]
			if isSeparator(b) {
				t.Fatalf("token %q contains separator byte %q", tok, b)
			}
			if b >= 'A' && b <= 'Z' {
				t.Fatalf("token %q is not lowercase", tok)
			}
		}
	}
}

func TestTokenizeIdempotent(t *testing.T) {
	first := Tokenize([]byte("a b c d"))
	joined := strings.Join(first, " ")
	second := Tokenize([]byte(joined))
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("tokenization not idempotent: %#v vs %#v", first, second)
	}
}
