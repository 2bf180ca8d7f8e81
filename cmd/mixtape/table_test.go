package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTable(t *testing.T) {
	out := renderTable([]string{"#", "Song"}, [][]string{{"1", "Dawn"}, {"2"}}, []columnAlignment{alignRight})
	if !strings.HasPrefix(out, "╭") {
		t.Fatalf("expected rounded table, got:\n%s", out)
	}
	for _, want := range []string{"Song", "Dawn", "2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in table:\n%s", want, out)
		}
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestWriteTablePlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, []string{"a", "b"}, [][]string{{"1", "2"}}, nil); err != nil {
		t.Fatalf("writeTable: %v", err)
	}
	if buf.String() != "a\tb\n1\t2\n" {
		t.Fatalf("unexpected plain output %q", buf.String())
	}
}
