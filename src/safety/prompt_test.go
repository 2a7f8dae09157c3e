package safety_test

import (
	"bytes"
	"strings"
	"testing"

	"bare-backup/src/safety"
)

func TestConfirmAutoYes(t *testing.T) {
	var out bytes.Buffer
	ok, err := safety.Confirm(safety.Options{Yes: true}, strings.NewReader(""), &out, "unmount all volumes?")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatalf("expected auto-yes to confirm")
	}
	if out.Len() != 0 {
		t.Fatalf("expected no prompt, got %q", out.String())
	}
}

func TestConfirmDryRun(t *testing.T) {
	var out bytes.Buffer
	ok, err := safety.Confirm(safety.Options{DryRun: true, Yes: true}, strings.NewReader("y\n"), &out, "unmount all volumes?")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected dry-run to decline even with --yes")
	}
}

func TestConfirmUserInput(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"Y\n", true},
		{"No\n", false},
		{"\n", false},
		{"y", true}, // EOF without trailing newline
		{"", false},
	}
	for _, c := range cases {
		var out bytes.Buffer
		got, err := safety.Confirm(safety.Options{}, strings.NewReader(c.in), &out, "clean session directories?")
		if err != nil {
			t.Fatalf("input %q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("input %q: got %v want %v", c.in, got, c.want)
		}
		if !strings.Contains(out.String(), "clean session directories?") {
			t.Fatalf("prompt missing question; got %q", out.String())
		}
	}
}
