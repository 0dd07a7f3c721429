package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewSessionsCmd tests the sessions command group creation.
func TestNewSessionsCmd(t *testing.T) {
	t.Parallel()

	cmd := NewSessionsCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "sessions" {
			t.Errorf("expected use 'sessions', got %q", cmd.Use)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"list":                false,
			"cleanup":             false,
			"delete <session-id>": false,
			"history [domain]":    false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Use]; ok {
				want[sub.Use] = true
			}
		}
		for use, found := range want {
			if !found {
				t.Errorf("expected subcommand %q", use)
			}
		}
	})

	t.Run("list has status flag", func(t *testing.T) {
		t.Parallel()
		list := findSubcommand(t, cmd, "list")
		if list.Flags().Lookup("status") == nil {
			t.Error("expected status flag")
		}
	})

	t.Run("cleanup has retention flags", func(t *testing.T) {
		t.Parallel()
		cleanup := findSubcommand(t, cmd, "cleanup")
		if cleanup.Flags().Lookup("max-age-days") == nil {
			t.Error("expected max-age-days flag")
		}
		if cleanup.Flags().Lookup("keep-completed") == nil {
			t.Error("expected keep-completed flag")
		}
	})
}

// TestSessionsListCmd tests listing against an empty store.
func TestSessionsListCmd(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "docscope.yaml")
	content := fmt.Sprintf("cache:\n  dir: %q\n", filepath.Join(tmpDir, "sessions"))
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Run("empty store", func(t *testing.T) {
		root := NewRootCmd()
		var buf bytes.Buffer
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs([]string{"-c", configPath, "sessions", "list"})

		if err := root.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No sessions found") {
			t.Errorf("expected empty-store message, got %q", buf.String())
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"-c", configPath, "sessions", "list", "--status", "bogus"})

		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "unknown status") {
			t.Errorf("expected unknown status error, got %v", err)
		}
	})
}

// TestFormatBytes tests human-readable byte formatting.
func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int64
		want string
	}{
		{0, "0B"},
		{512, "512B"},
		{1024, "1.0KB"},
		{1536, "1.5KB"},
		{1048576, "1.0MB"},
		{5 * 1024 * 1024 * 1024, "5.0GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestHostOf tests host extraction from crawl targets.
func TestHostOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://docs.example.com/guide/", "docs.example.com"},
		{"http://example.com", "example.com"},
		{"example.com/docs/", "example.com"},
		{"docs.example.com:8080/x", "docs.example.com:8080"},
	}
	for _, tt := range tests {
		if got := hostOf(tt.in); got != tt.want {
			t.Errorf("hostOf(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
