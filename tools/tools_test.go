package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"2+3", "5"},
		{"(2+3)*4", "20"},
		{"8/2", "4"},
		{"7/2", "3.5"},
		{" 1.5 * 2 ", "3"},
		{"10-12", "-2"},
		{"2**3", "8"},
		{"2**-1", "0.5"},
		{"2**3**2", "512"},
		{"-2**2", "-4"},
		{"7//2", "3"},
		{"-7//2", "-4"},
		{"7.5 // 2", "3"},
		{"2*3//4", "1"},
		{"5/0", calculatorErrorPrefix + "division by zero"},
		{"5//0", calculatorErrorPrefix + "division by zero"},
		{"0**-1", calculatorErrorPrefix + "division by zero"},
		{"(1+2", calculatorErrorPrefix + "invalid syntax"},
		{"2***3", calculatorErrorPrefix + "invalid syntax"},
		{"1 2", calculatorErrorPrefix + "invalid syntax"},
		{"1..2", calculatorErrorPrefix + `invalid number "1..2"`},
		{"import os", calculatorBlocked},
		{"", calculatorBlocked},
		{"1e3", calculatorBlocked},
	}
	for _, tt := range tests {
		got := Calculate(context.Background(), tt.expr)
		if tt.want == "" {
			if !strings.HasPrefix(got, calculatorErrorPrefix) {
				t.Fatalf("Calculate(%q) = %q, want calculator error", tt.expr, got)
			}
			continue
		}
		if got != tt.want {
			t.Fatalf("Calculate(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestCalculateDivisionByZero(t *testing.T) {
	got := Calculate(context.Background(), "1/0")
	if !strings.HasPrefix(got, calculatorErrorPrefix) || !strings.Contains(got, "division by zero") {
		t.Fatalf("got %q", got)
	}
}

func TestTranslateExpr(t *testing.T) {
	tests := []struct {
		expr, want string
	}{
		{"(12+3.5)/4", "(((12.+3.5))/4.)"},
		{"-2**2", "(-math.Pow(2., 2.))"},
		{"7//2", "math.Floor(7./2.)"},
	}
	for _, tt := range tests {
		got, err := translateExpr(tt.expr)
		if err != nil {
			t.Fatalf("translateExpr(%q): %v", tt.expr, err)
		}
		if got != tt.want {
			t.Fatalf("translateExpr(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}
}

func TestTrimPosition(t *testing.T) {
	if got := trimPosition("1:9: division by zero"); got != "division by zero" {
		t.Fatalf("got %q", got)
	}
	if got := trimPosition("_.go:1:43: missing ',' before newline"); got != "missing ',' before newline" {
		t.Fatalf("got %q", got)
	}
	if got := trimPosition("plain message"); got != "plain message" {
		t.Fatalf("got %q", got)
	}
}

func TestCalculatorToolArgs(t *testing.T) {
	tool := &CalculatorTool{}
	out, err := tool.Run(context.Background(), json.RawMessage(`{"expression":"6*7"}`))
	if err != nil || out != "42" {
		t.Fatalf("Run = %q, %v", out, err)
	}
	if _, err := tool.Run(context.Background(), json.RawMessage(`{"expr":"1"}`)); err == nil {
		t.Fatal("expected error for unknown argument")
	}
}

func writeNote(t *testing.T, dir, rel, content string) {
	t.Helper()
	p := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSearchNotes(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "ch3.md", "Chapter 3\nFractions are parts\nof a whole.")
	writeNote(t, dir, "sub/deep.TXT", "more about FRACTIONS here")
	writeNote(t, dir, "skip.pdf", "fractions")
	writeNote(t, dir, "other.md", "nothing relevant")

	got, err := SearchNotes(dir, "fractions")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %q", got)
	}
	want0 := "- " + filepath.ToSlash(filepath.Join(dir, "ch3.md")) + ": Chapter 3 Fractions are parts of a whole."
	if lines[0] != want0 {
		t.Fatalf("line 0 = %q, want %q", lines[0], want0)
	}
	if !strings.HasPrefix(lines[1], "- "+filepath.ToSlash(filepath.Join(dir, "sub/deep.TXT"))+": ") {
		t.Fatalf("line 1 = %q", lines[1])
	}
}

func TestSearchNotesSnippetWindow(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("a", 200) + "NEEDLE" + strings.Repeat("b", 200)
	writeNote(t, dir, "n.txt", text)

	got, err := SearchNotes(dir, "needle")
	if err != nil {
		t.Fatal(err)
	}
	_, snippet, _ := strings.Cut(got, ": ")
	want := strings.Repeat("a", 120) + "NEEDLE" + strings.Repeat("b", 114)
	if snippet != want {
		t.Fatalf("snippet = %q", snippet)
	}
}

func TestSearchNotesLimitsHits(t *testing.T) {
	dir := t.TempDir()
	for i := range 10 {
		writeNote(t, dir, filepath.Join("n", string(rune('a'+i))+".md"), "topic")
	}
	got, _ := SearchNotes(dir, "topic")
	if n := len(strings.Split(got, "\n")); n != notesMaxHits {
		t.Fatalf("hits = %d", n)
	}
}

func TestSearchNotesCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "notes")
	got, err := SearchNotes(dir, "anything")
	if err != nil {
		t.Fatal(err)
	}
	if got != notesNoMatches {
		t.Fatalf("got %q", got)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("notes dir not created: %v", err)
	}
}

func TestRegistry(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry()
	r.RegisterDefaultTools(func() string { return dir })

	names := r.Names()
	if len(names) != 2 || names[0] != "calculator" || names[1] != "search_notes" {
		t.Fatalf("names = %v", names)
	}
	if defs := r.Defs(); defs[1].Name != "search_notes" {
		t.Fatalf("defs = %+v", defs)
	}
	tool, ok := r.Get("search_notes")
	if !ok {
		t.Fatal("search_notes not registered")
	}
	out, err := tool.Run(context.Background(), json.RawMessage(`{"query":"x"}`))
	if err != nil || out != notesNoMatches {
		t.Fatalf("Run = %q, %v", out, err)
	}
	if _, ok := r.Get("web_search"); ok {
		t.Fatal("unexpected tool")
	}
}
