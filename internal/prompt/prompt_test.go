package prompt

import (
	"bytes"
	"strings"
	"testing"
)

func TestAsk(t *testing.T) {
	var out bytes.Buffer
	p := New(strings.NewReader("  keydown handling \nsecond\n"), &out)

	got, err := p.Ask("What did you build? ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "keydown handling" {
		t.Errorf("got %q", got)
	}
	if out.String() != "What did you build? " {
		t.Errorf("prompt = %q", out.String())
	}
	if got, _ := p.Ask(""); got != "second" {
		t.Errorf("second answer = %q", got)
	}
	if got, err := p.Ask(""); got != "" || err != nil {
		t.Errorf("at EOF = %q, %v", got, err)
	}
}

func TestAskDefault(t *testing.T) {
	p := New(strings.NewReader("\nmine\n"), &bytes.Buffer{})
	if got, _ := p.AskDefault("Project: ", "demo"); got != "demo" {
		t.Errorf("empty answer = %q, want default", got)
	}
	if got, _ := p.AskDefault("Project: ", "demo"); got != "mine" {
		t.Errorf("answer = %q", got)
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":    true,
		"YES\n":  true,
		"n\n":    false,
		"\n":     false,
		"sure\n": false,
		"":       false,
	}
	for in, want := range cases {
		p := New(strings.NewReader(in), &bytes.Buffer{})
		got, err := p.Confirm("Continue? (y/N) ")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("Confirm(%q) = %v, want %v", in, got, want)
		}
	}
}
