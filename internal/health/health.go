// Package health reports process and configuration status for the /health
// endpoint.
package health

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

var processStart = time.Now()

// Options selects what Collect reports beyond the runtime.
type Options struct {
	Provider string
	Model    string
	NotesDir string
	Channels []string
}

// Snapshot is a health report.
type Snapshot struct {
	Status     string      `json:"status"`
	Goroutines int         `json:"goroutines"`
	Uptime     string      `json:"uptime"`
	Memory     MemoryInfo  `json:"memory"`
	Runtime    RuntimeInfo `json:"runtime"`
	LLM        *LLMInfo    `json:"llm,omitempty"`
	Notes      *NotesInfo  `json:"notes,omitempty"`
	Channels   []string    `json:"channels,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// MemoryInfo is a subset of runtime.MemStats in megabytes.
type MemoryInfo struct {
	AllocMB      float64 `json:"allocMB"`
	TotalAllocMB float64 `json:"totalAllocMB"`
	SysMB        float64 `json:"sysMB"`
	NumGC        uint32  `json:"numGC"`
}

// RuntimeInfo describes the Go runtime.
type RuntimeInfo struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	CPUs    int    `json:"cpus"`
}

// LLMInfo names the configured backend. Keys are never reported.
type LLMInfo struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// NotesInfo describes the search_notes directory.
type NotesInfo struct {
	Path       string `json:"path"`
	Exists     bool   `json:"exists"`
	Files      int    `json:"files"`
	UpdatedAt  string `json:"updatedAt,omitempty"`
	ParseError string `json:"error,omitempty"`
}

// Collect returns a health snapshot for the current process.
func Collect(opts Options) Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s := Snapshot{
		Status:     "healthy",
		Goroutines: runtime.NumGoroutine(),
		Uptime:     time.Since(processStart).Round(time.Second).String(),
		Memory: MemoryInfo{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Runtime: RuntimeInfo{
			Version: runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			CPUs:    runtime.NumCPU(),
		},
		Channels:  opts.Channels,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if opts.Provider != "" || opts.Model != "" {
		s.LLM = &LLMInfo{Provider: opts.Provider, Model: opts.Model}
	}
	if opts.NotesDir != "" {
		s.Notes = inspectNotes(opts.NotesDir)
	}
	return s
}

// inspectNotes counts searchable files under dir. A missing directory is
// not an error; search_notes creates it on first use.
func inspectNotes(dir string) *NotesInfo {
	info := &NotesInfo{Path: dir}

	stat, err := os.Stat(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			info.ParseError = err.Error()
		}
		return info
	}
	info.Exists = true
	latest := stat.ModTime()

	err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".txt" && ext != ".md" {
			return nil
		}
		info.Files++
		if fi, err := d.Info(); err == nil && fi.ModTime().After(latest) {
			latest = fi.ModTime()
		}
		return nil
	})
	if err != nil {
		info.ParseError = err.Error()
	}
	info.UpdatedAt = latest.Format(time.RFC3339)
	return info
}
