package crawler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/scope"
)

func newTestValidator(t *testing.T, mutate func(*config.Config)) *urlValidator {
	t.Helper()

	cfg := config.New()
	if mutate != nil {
		mutate(cfg)
	}
	sm, err := scope.New("https://example.com/docs/", cfg.PathScoping)
	if err != nil {
		t.Fatalf("scope.New() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newURLValidator(cfg, sm, logger)
}

func TestURLValidator(t *testing.T) {
	t.Parallel()

	t.Run("in-scope URL passes", func(t *testing.T) {
		t.Parallel()

		v := newTestValidator(t, nil)
		if !v.isValid("https://example.com/docs/guide", false, 1) {
			t.Error("isValid() = false for in-scope URL")
		}
	})

	t.Run("URL length ceiling", func(t *testing.T) {
		t.Parallel()

		v := newTestValidator(t, func(cfg *config.Config) {
			cfg.Filters.MaxURLLength = 30
		})
		if v.isValid("https://example.com/docs/a-very-long-page-name-here", false, 1) {
			t.Error("isValid() = true for over-length URL")
		}
	})

	t.Run("exclude patterns reject", func(t *testing.T) {
		t.Parallel()

		v := newTestValidator(t, func(cfg *config.Config) {
			cfg.Filters.ExcludePatterns = []string{`/docs/private/`}
		})
		if v.isValid("https://example.com/docs/private/page", false, 1) {
			t.Error("isValid() = true for excluded URL")
		}
	})

	t.Run("login patterns suspended when auth enabled", func(t *testing.T) {
		t.Parallel()

		const loginURL = "https://example.com/docs/login"

		without := newTestValidator(t, func(cfg *config.Config) {
			cfg.Filters.ExcludePatterns = []string{`/login`}
		})
		if without.isValid(loginURL, false, 1) {
			t.Error("isValid() = true for login URL without auth")
		}

		with := newTestValidator(t, func(cfg *config.Config) {
			cfg.Filters.ExcludePatterns = []string{`/login`}
			cfg.Auth.Enabled = true
		})
		if !with.isValid(loginURL, false, 1) {
			t.Error("isValid() = false for login URL with auth enabled")
		}
	})

	t.Run("invalid patterns are dropped not fatal", func(t *testing.T) {
		t.Parallel()

		v := newTestValidator(t, func(cfg *config.Config) {
			cfg.Filters.ExcludePatterns = []string{`[broken`}
		})
		if !v.isValid("https://example.com/docs/guide", false, 1) {
			t.Error("isValid() = false after invalid pattern, want pattern dropped")
		}
	})

	t.Run("skip extensions reject", func(t *testing.T) {
		t.Parallel()

		v := newTestValidator(t, nil) // defaults include .pdf
		if v.isValid("https://example.com/docs/manual.pdf", false, 1) {
			t.Error("isValid() = true for skip-extension URL")
		}
	})

	t.Run("memoized decisions are stable", func(t *testing.T) {
		t.Parallel()

		v := newTestValidator(t, nil)
		const u = "https://example.com/docs/guide"
		first := v.isValid(u, false, 1)
		second := v.isValid(u, false, 1)
		if first != second {
			t.Error("memoized decision changed between calls")
		}
		if len(v.cache) != 1 {
			t.Errorf("cache entries = %d, want 1", len(v.cache))
		}
	})
}
