package cache

import (
	"compress/gzip"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docscope/docscope/internal/config"
	"github.com/docscope/docscope/internal/model"
)

// Store is the filesystem-backed session cache.
//
// Design decision: We use one directory per session with plain JSON files
// rather than a database because:
//  1. Sessions are inspectable and recoverable with standard tools
//  2. Page writes keyed by URL hash are naturally idempotent
//  3. Whole-session deletion is a single RemoveAll
type Store struct {
	// root is the sessions directory. Each session gets root/<sessionID>/.
	root string

	// compress enables gzip for newly written files. Reads always handle
	// both compressed and plain files.
	compress bool

	// level is the gzip compression level.
	level int

	// logger records recoverable store problems.
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCompression controls gzip compression of newly written cache files.
func WithCompression(enabled bool, level int) Option {
	return func(s *Store) {
		s.compress = enabled
		if level != 0 {
			s.level = level
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a session store rooted at dir, creating it if needed.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create session store root: %w", err)
	}

	s := &Store{
		root:     dir,
		compress: true,
		level:    gzip.DefaultCompression,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s, nil
}

// Root returns the sessions directory.
func (s *Store) Root() string {
	return s.root
}

// CreateSession creates and persists a new active session for the base
// URL and configuration. The session ID combines the base URL's host, a
// UTC timestamp, and the 8-character config hash, so concurrent creations
// for different (base URL, config) pairs cannot collide on sane clocks.
func (s *Store) CreateSession(baseURL string, cfg *config.Config) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("invalid base URL %q", baseURL)
	}

	now := time.Now().UTC()
	sessionID := fmt.Sprintf("%s_%s_%s",
		sanitizeHost(u.Host),
		now.Format("20060102-150405"),
		cfg.ShortHash(),
	)

	dir := s.sessionDir(sessionID)
	if err := os.MkdirAll(filepath.Join(dir, "pages"), 0750); err != nil {
		return "", fmt.Errorf("create session directory: %w", err)
	}

	session := &model.CrawlSession{
		SessionID:      sessionID,
		BaseURL:        baseURL,
		ConfigHash:     cfg.Hash(),
		Status:         model.SessionActive,
		CreatedAt:      now,
		LastModified:   now,
		URLsDiscovered: []string{},
		URLsScraped:    []string{},
		URLsFailed:     []string{},
	}

	if err := s.saveSession(session); err != nil {
		return "", err
	}

	s.logger.Debug("session created", "session_id", sessionID, "base_url", baseURL)
	return sessionID, nil
}

// SavePage persists a scraped page and updates the owning session.
// The page is keyed by the SHA-256 of its URL, so saving the same URL
// twice overwrites the record and leaves the session's scraped list
// unchanged. I/O problems are returned as errors for the caller to log;
// they never abort the process.
func (s *Store) SavePage(sessionID string, page *model.CachedPage) error {
	if page == nil || page.URL == "" {
		return ErrEmptyURL
	}

	session, found := s.LoadSession(sessionID)
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	page.SessionID = sessionID
	if page.CachedAt.IsZero() {
		page.CachedAt = time.Now().UTC()
	}

	pagePath := filepath.Join(s.sessionDir(sessionID), "pages", model.URLKey(page.URL)+".json")
	if err := writeJSON(pagePath, page, s.compress, s.level); err != nil {
		return fmt.Errorf("save page %s: %w", page.URL, err)
	}

	session.MarkScraped(page.URL)
	session.LastModified = time.Now().UTC()
	if err := s.saveSession(session); err != nil {
		return fmt.Errorf("update session after page save: %w", err)
	}

	return nil
}

// MarkURLFailed records a URL that failed to fetch or extract, once.
func (s *Store) MarkURLFailed(sessionID, url string) error {
	session, found := s.LoadSession(sessionID)
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	session.MarkFailed(url)
	session.LastModified = time.Now().UTC()
	return s.saveSession(session)
}

// SaveDiscoveryResults persists a discovery pass and records the
// discovered URL set on the session.
func (s *Store) SaveDiscoveryResults(sessionID string, urls []string, classifications map[string]model.ContentType) error {
	session, found := s.LoadSession(sessionID)
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	result := &model.DiscoveryResult{
		URLs:            urls,
		Classifications: classifications,
		DiscoveredAt:    time.Now().UTC(),
		TotalURLs:       len(urls),
	}

	discoveryPath := filepath.Join(s.sessionDir(sessionID), "discovery.json")
	if err := writeJSON(discoveryPath, result, s.compress, s.level); err != nil {
		return fmt.Errorf("save discovery results: %w", err)
	}

	session.URLsDiscovered = urls
	session.PagesTotal = len(urls)
	session.LastModified = time.Now().UTC()
	return s.saveSession(session)
}

// LoadSession loads a session record. Missing or corrupted records are
// reported as not found (after a warning for corruption), never as a
// crash.
func (s *Store) LoadSession(sessionID string) (*model.CrawlSession, bool) {
	var session model.CrawlSession
	err := readJSON(filepath.Join(s.sessionDir(sessionID), "session.json"), &session)
	if err != nil {
		if !errors.Is(err, ErrCacheFileNotFound) {
			s.logger.Warn("corrupted session record", "session_id", sessionID, "error", err)
		}
		return nil, false
	}
	return &session, true
}

// LoadDiscovery loads the persisted discovery result for a session.
func (s *Store) LoadDiscovery(sessionID string) (*model.DiscoveryResult, error) {
	var result model.DiscoveryResult
	if err := readJSON(filepath.Join(s.sessionDir(sessionID), "discovery.json"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoadCachedPages loads all cached pages for a session, sorted by URL for
// deterministic ordering. Corrupted page files are skipped with a warning.
func (s *Store) LoadCachedPages(sessionID string) ([]model.CachedPage, error) {
	pagesDir := filepath.Join(s.sessionDir(sessionID), "pages")
	entries, err := os.ReadDir(pagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("read pages directory: %w", err)
	}

	// Entries come in pairs of names with and without .gz; read each
	// logical page once via its uncompressed base path.
	seen := make(map[string]struct{}, len(entries))
	pages := make([]model.CachedPage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".gz")
		if !strings.HasSuffix(base, ".json") {
			continue
		}
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}

		var page model.CachedPage
		if err := readJSON(filepath.Join(pagesDir, base), &page); err != nil {
			s.logger.Warn("skipping corrupted cached page", "session_id", sessionID, "file", base, "error", err)
			continue
		}
		pages = append(pages, page)
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].URL < pages[j].URL })
	return pages, nil
}

// GetResumeURLs returns the members of allURLs the session has not yet
// scraped. An unknown session leaves everything remaining.
func (s *Store) GetResumeURLs(sessionID string, allURLs []string) []string {
	session, found := s.LoadSession(sessionID)
	if !found {
		return allURLs
	}
	return session.RemainingURLs(allURLs)
}

// MarkSessionComplete transitions a session to completed and stamps the
// completion time.
func (s *Store) MarkSessionComplete(sessionID string) error {
	return s.setStatus(sessionID, model.SessionCompleted)
}

// MarkSessionFailed transitions a session to failed.
func (s *Store) MarkSessionFailed(sessionID string) error {
	return s.setStatus(sessionID, model.SessionFailed)
}

func (s *Store) setStatus(sessionID string, status model.SessionStatus) error {
	session, found := s.LoadSession(sessionID)
	if !found {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	now := time.Now().UTC()
	session.Status = status
	session.LastModified = now
	if status == model.SessionCompleted {
		session.CompletedAt = &now
	}
	return s.saveSession(session)
}

// ListSessions returns summaries of all sessions, optionally filtered by
// status (empty filter lists everything), sorted by last modification
// time descending. Unreadable session directories are skipped with a
// warning.
func (s *Store) ListSessions(statusFilter model.SessionStatus) ([]model.SessionSummary, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read session store root: %w", err)
	}

	summaries := make([]model.SessionSummary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		session, found := s.LoadSession(entry.Name())
		if !found {
			s.logger.Warn("skipping unreadable session", "session_id", entry.Name())
			continue
		}
		if statusFilter != "" && session.Status != statusFilter {
			continue
		}

		summaries = append(summaries, model.SessionSummary{
			SessionID:    session.SessionID,
			BaseURL:      session.BaseURL,
			Status:       session.Status,
			PagesScraped: session.PagesScraped,
			PagesTotal:   session.PagesTotal,
			CreatedAt:    session.CreatedAt,
			LastModified: session.LastModified,
			SizeBytes:    dirSize(s.sessionDir(session.SessionID)),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastModified.After(summaries[j].LastModified)
	})
	return summaries, nil
}

// CleanupOldSessions deletes sessions older than maxAgeDays, always
// preserving the keepCompleted most-recently-modified completed sessions
// regardless of age. It returns the number of sessions removed. Deletion
// failures are logged and cleanup continues; partial progress is kept.
func (s *Store) CleanupOldSessions(maxAgeDays, keepCompleted int) (int, error) {
	summaries, err := s.ListSessions("")
	if err != nil {
		return 0, err
	}

	// ListSessions sorts by LastModified descending, so the first
	// keepCompleted completed sessions are the protected ones.
	protected := make(map[string]struct{}, keepCompleted)
	for _, summary := range summaries {
		if summary.Status != model.SessionCompleted {
			continue
		}
		if len(protected) >= keepCompleted {
			break
		}
		protected[summary.SessionID] = struct{}{}
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -maxAgeDays)
	removed := 0
	for _, summary := range summaries {
		if _, ok := protected[summary.SessionID]; ok {
			continue
		}
		if summary.LastModified.After(cutoff) {
			continue
		}

		if err := s.DeleteSession(summary.SessionID); err != nil {
			s.logger.Warn("failed to delete session", "session_id", summary.SessionID, "error", err)
			continue
		}
		removed++
	}

	s.logger.Debug("session cleanup finished", "removed", removed, "kept", len(summaries)-removed)
	return removed, nil
}

// FindCompatibleSession returns the most recently modified active session
// whose base URL and config hash match, enabling automatic resume without
// an explicit session ID.
func (s *Store) FindCompatibleSession(baseURL string, cfg *config.Config) (string, bool) {
	summaries, err := s.ListSessions(model.SessionActive)
	if err != nil {
		s.logger.Warn("failed to list sessions for resume lookup", "error", err)
		return "", false
	}

	wantHash := cfg.Hash()
	for _, summary := range summaries {
		session, found := s.LoadSession(summary.SessionID)
		if !found {
			continue
		}
		if session.BaseURL == baseURL && session.ConfigHash == wantHash {
			return session.SessionID, true
		}
	}
	return "", false
}

// DeleteSession removes a session directory and everything in it.
func (s *Store) DeleteSession(sessionID string) error {
	if sessionID == "" || strings.ContainsAny(sessionID, "/\\") {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	return os.RemoveAll(s.sessionDir(sessionID))
}

// saveSession persists the session record.
func (s *Store) saveSession(session *model.CrawlSession) error {
	path := filepath.Join(s.sessionDir(session.SessionID), "session.json")
	if err := writeJSON(path, session, s.compress, s.level); err != nil {
		return fmt.Errorf("save session %s: %w", session.SessionID, err)
	}
	return nil
}

// sessionDir returns the directory for a session.
func (s *Store) sessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

// sanitizeHost maps a URL host to a filesystem-safe session ID component.
func sanitizeHost(host string) string {
	replacer := strings.NewReplacer(".", "_", ":", "_")
	return replacer.Replace(strings.ToLower(host))
}
