package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/linanwx/tutorbot/logger"
)

const (
	notesNoMatches    = "No matches."
	notesSnippetRunes = 120
	notesMaxHits      = 8
)

// SearchNotesTool searches .txt and .md files under a notes directory.
type SearchNotesTool struct {
	dir func() string
}

// NewSearchNotesTool returns a tool rooted at dir.
func NewSearchNotesTool(dir string) *SearchNotesTool {
	return &SearchNotesTool{dir: func() string { return dir }}
}

// Def returns the tool definition.
func (t *SearchNotesTool) Def() Def {
	return Def{
		Name:        "search_notes",
		Description: "Search the student's local notes and return matching file names with snippets.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": stringParam("Text to look for, case-insensitive."),
			},
			"required": []string{"query"},
		},
	}
}

type searchNotesArgs struct {
	Query string `json:"query"`
}

// Run executes the tool.
func (t *SearchNotesTool) Run(_ context.Context, args json.RawMessage) (string, error) {
	var a searchNotesArgs
	if err := parseArgs(args, &a); err != nil {
		return "", err
	}
	dir := "./notes"
	if t.dir != nil {
		if d := t.dir(); d != "" {
			dir = d
		}
	}
	return SearchNotes(dir, a.Query)
}

// SearchNotes returns up to eight "- file: snippet" lines for files under
// dir containing query, or "No matches.". dir is created if missing.
func SearchNotes(dir, query string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create notes dir: %w", err)
	}

	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, "**/*.*")
	if err != nil {
		return "", fmt.Errorf("glob notes: %w", err)
	}
	sort.Strings(matches)

	needle := lowerRunes(query)
	var hits []string
	for _, rel := range matches {
		ext := strings.ToLower(path.Ext(rel))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			logger.Debug("skip unreadable note", "file", rel, "err", err)
			continue
		}
		snippet, ok := findSnippet([]rune(string(data)), needle)
		if !ok {
			continue
		}
		file := filepath.ToSlash(filepath.Join(dir, filepath.FromSlash(rel)))
		hits = append(hits, "- "+file+": "+snippet)
		if len(hits) == notesMaxHits {
			break
		}
	}

	if len(hits) == 0 {
		return notesNoMatches, nil
	}
	return strings.Join(hits, "\n"), nil
}

// findSnippet locates needle in text ignoring case and returns the
// surrounding window with newlines flattened.
func findSnippet(text, needle []rune) (string, bool) {
	i := indexRunes(lowerRunes(string(text)), needle)
	if i < 0 {
		return "", false
	}
	start := max(0, i-notesSnippetRunes)
	end := min(len(text), i+notesSnippetRunes)
	return strings.ReplaceAll(string(text[start:end]), "\n", " "), true
}

func lowerRunes(s string) []rune {
	rs := []rune(s)
	for i, r := range rs {
		rs[i] = unicode.ToLower(r)
	}
	return rs
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, r := range needle {
			if haystack[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}
