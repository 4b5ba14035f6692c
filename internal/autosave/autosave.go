// Package autosave snapshots the project on a timer once edits have
// quiesced, keeps the recent-files list, and finds crash leftovers at
// startup. The host owns scheduling: it calls Tick from its timer and
// NotifyEdit from the command path, so this package has no goroutines of
// its own.
package autosave

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/projectio"
)

const (
	// DefaultInterval is the periodic autosave cadence.
	DefaultInterval = 30 * time.Second

	// DefaultIdle is how long edits must have quiesced before a snapshot.
	DefaultIdle = 5 * time.Second

	// DefaultMaxRecent bounds the recent-files list.
	DefaultMaxRecent = 10

	recentFileName = "recent.json"
)

// RecoveryCandidate is one autosave file found at startup.
type RecoveryCandidate struct {
	Path       string
	ModifiedAt time.Time
}

// Manager coordinates snapshots for one project session.
type Manager struct {
	dir       string
	interval  time.Duration
	idle      time.Duration
	maxRecent int

	project    *model.ProjectState
	activePath string

	edited   bool
	lastEdit time.Time
	lastTick time.Time
	saved    []string // session's own snapshot files, removed on clean close
}

// NewManager builds a manager writing into dir (created on demand).
func NewManager(dir string, interval, idle time.Duration) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Manager{dir: dir, interval: interval, idle: idle, maxRecent: DefaultMaxRecent}
}

// SetProject attaches the project to snapshot.
func (m *Manager) SetProject(p *model.ProjectState) { m.project = p }

// SetActiveFile records the project's save path (for snapshot naming and the
// recent list).
func (m *Manager) SetActiveFile(path string) {
	m.activePath = path
	if path != "" {
		_ = m.AddRecentFile(path)
	}
}

// NotifyEdit marks the project dirty. Called after every applied command.
func (m *Manager) NotifyEdit(now time.Time) {
	m.edited = true
	m.lastEdit = now
}

// Tick runs the autosave policy. With no edits since the last snapshot it
// performs zero writes; with pending edits it saves once the idle window has
// passed or the periodic interval has elapsed. Returns the snapshot path
// when one was written.
func (m *Manager) Tick(now time.Time) (string, error) {
	if m.lastTick.IsZero() {
		m.lastTick = now
	}
	if m.project == nil || !m.edited {
		return "", nil
	}
	idleFor := now.Sub(m.lastEdit)
	intervalFor := now.Sub(m.lastTick)
	if idleFor < m.idle && intervalFor < m.interval {
		return "", nil
	}
	path, err := m.saveNow(now)
	if err != nil {
		return "", err
	}
	m.lastTick = now
	return path, nil
}

// saveNow writes a snapshot unconditionally.
func (m *Manager) saveNow(now time.Time) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", err
	}
	stem := "autosave"
	if m.activePath != "" {
		base := filepath.Base(m.activePath)
		stem = strings.TrimSuffix(base, projectio.Extension) + "_autosave"
	}
	name := fmt.Sprintf("%s_%d%s", stem, now.Unix(), projectio.Extension)
	path := filepath.Join(m.dir, name)
	if err := projectio.Save(m.project, path); err != nil {
		return "", err
	}
	m.edited = false
	m.saved = append(m.saved, path)
	return path, nil
}

// Flush snapshots immediately if edits are pending. Used before risky
// operations (export, project switch).
func (m *Manager) Flush(now time.Time) (string, error) {
	if m.project == nil || !m.edited {
		return "", nil
	}
	return m.saveNow(now)
}

// CloseClean removes this session's snapshots so the next startup sees no
// recovery candidates from a clean exit.
func (m *Manager) CloseClean() {
	for _, path := range m.saved {
		_ = os.Remove(path)
	}
	m.saved = nil
	m.edited = false
}

// ScanRecovery lists leftover autosave files, newest first. Any file present
// at startup is a crash leftover: clean shutdowns delete theirs.
func ScanRecovery(dir string) ([]RecoveryCandidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []RecoveryCandidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), projectio.Extension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, RecoveryCandidate{
			Path:       filepath.Join(dir, entry.Name()),
			ModifiedAt: info.ModTime(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModifiedAt.After(out[j].ModifiedAt) })
	return out, nil
}

// Recover loads a candidate through the normal persistence path.
func Recover(candidate RecoveryCandidate) (*model.ProjectState, []projectio.MissingFileWarning, error) {
	return projectio.Load(candidate.Path)
}

// DiscardRecovery removes all autosave files in dir.
func DiscardRecovery(dir string) error {
	candidates, err := ScanRecovery(dir)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Recent files. The list is MRU-ordered and deduplicated by absolute path.

func (m *Manager) recentPath() string {
	return filepath.Join(m.dir, recentFileName)
}

// RecentFiles returns the MRU list, dropping entries whose files are gone.
func (m *Manager) RecentFiles() []string {
	raw, err := os.ReadFile(m.recentPath())
	if err != nil {
		return nil
	}
	var paths []string
	if err := json.Unmarshal(raw, &paths); err != nil {
		return nil
	}
	var out []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// AddRecentFile pushes a path to the front of the MRU list.
func (m *Manager) AddRecentFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	current := m.RecentFiles()
	out := []string{abs}
	for _, p := range current {
		if p != abs {
			out = append(out, p)
		}
	}
	if len(out) > m.maxRecent {
		out = out[:m.maxRecent]
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(m.recentPath(), data, 0o644)
}

// ClearRecentFiles empties the MRU list.
func (m *Manager) ClearRecentFiles() error {
	err := os.Remove(m.recentPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
