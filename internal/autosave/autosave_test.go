package autosave

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastmoviemaker/fmm/internal/model"
	"github.com/fastmoviemaker/fmm/internal/projectio"
)

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" && e.Name() != recentFileName {
			n++
		}
	}
	return n
}

// Idempotence: no edits, no writes; one edit plus quiescence, exactly one
// write.
func TestTickIdempotence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autosave")
	m := NewManager(dir, 30*time.Second, 5*time.Second)
	m.SetProject(model.NewProject())

	now := time.Unix(1_700_000_000, 0)

	// Ticks without edits write nothing.
	for i := 0; i < 5; i++ {
		path, err := m.Tick(now.Add(time.Duration(i) * time.Minute))
		if err != nil {
			t.Fatal(err)
		}
		if path != "" {
			t.Fatal("tick without edits must not save")
		}
	}
	if countFiles(t, dir) != 0 {
		t.Fatal("files written without edits")
	}

	// One edit, then quiescence past the idle window: exactly one write.
	m.NotifyEdit(now)
	if path, err := m.Tick(now.Add(2 * time.Second)); err != nil || path != "" {
		t.Fatalf("tick inside idle window saved: %q %v", path, err)
	}
	path, err := m.Tick(now.Add(6 * time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("expected a snapshot after idle quiescence")
	}
	if countFiles(t, dir) != 1 {
		t.Fatalf("snapshot count = %d, want 1", countFiles(t, dir))
	}

	// Further ticks with no new edits stay quiet.
	if path, err := m.Tick(now.Add(10 * time.Minute)); err != nil || path != "" {
		t.Fatalf("tick after save wrote again: %q %v", path, err)
	}
	if countFiles(t, dir) != 1 {
		t.Fatal("extra snapshot written")
	}
}

func TestIntervalSaveDuringContinuousEditing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autosave")
	m := NewManager(dir, 30*time.Second, 5*time.Second)
	m.SetProject(model.NewProject())

	now := time.Unix(1_700_000_000, 0)
	if _, err := m.Tick(now); err != nil {
		t.Fatal(err)
	}

	// Edits keep arriving every 2 s, never quiescing; the periodic interval
	// still forces a snapshot.
	saved := 0
	for i := 0; i < 20; i++ {
		now = now.Add(2 * time.Second)
		m.NotifyEdit(now)
		path, err := m.Tick(now)
		if err != nil {
			t.Fatal(err)
		}
		if path != "" {
			saved++
		}
	}
	if saved == 0 {
		t.Error("interval save never fired under continuous editing")
	}
}

func TestRecoveryScanAndDiscard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autosave")
	m := NewManager(dir, time.Second, time.Second)
	p := model.NewProject()
	p.DurationMs = 1234
	m.SetProject(p)

	now := time.Unix(1_700_000_000, 0)
	m.NotifyEdit(now)
	snapPath, err := m.Tick(now.Add(2 * time.Second))
	if err != nil || snapPath == "" {
		t.Fatalf("snapshot: %q %v", snapPath, err)
	}

	candidates, err := ScanRecovery(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}

	recovered, _, err := Recover(candidates[0])
	if err != nil {
		t.Fatalf("Recover: %v", err)
	}
	if recovered.DurationMs != 1234 {
		t.Errorf("recovered duration = %d", recovered.DurationMs)
	}

	if err := DiscardRecovery(dir); err != nil {
		t.Fatal(err)
	}
	candidates, err = ScanRecovery(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Error("discard left candidates behind")
	}
}

func TestCloseCleanRemovesOwnSnapshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autosave")
	m := NewManager(dir, time.Second, time.Second)
	m.SetProject(model.NewProject())

	now := time.Unix(1_700_000_000, 0)
	m.NotifyEdit(now)
	if _, err := m.Tick(now.Add(2 * time.Second)); err != nil {
		t.Fatal(err)
	}
	m.CloseClean()

	candidates, err := ScanRecovery(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 0 {
		t.Error("clean close must leave no recovery candidates")
	}
}

func TestRecentFilesMRU(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "autosave")
	m := NewManager(dir, time.Second, time.Second)

	// Recent entries must exist on disk to be listed.
	mkfile := func(name string) string {
		p := filepath.Join(t.TempDir(), name+projectio.Extension)
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	a, b, c := mkfile("a"), mkfile("b"), mkfile("c")
	for _, p := range []string{a, b, c} {
		if err := m.AddRecentFile(p); err != nil {
			t.Fatal(err)
		}
	}
	got := m.RecentFiles()
	if len(got) != 3 || got[0] != c {
		t.Fatalf("MRU order wrong: %v", got)
	}

	// Re-adding moves to front without duplicating.
	if err := m.AddRecentFile(a); err != nil {
		t.Fatal(err)
	}
	got = m.RecentFiles()
	if len(got) != 3 || got[0] != a {
		t.Fatalf("dedup/move-to-front failed: %v", got)
	}

	// Deleted files silently drop out.
	if err := os.Remove(b); err != nil {
		t.Fatal(err)
	}
	got = m.RecentFiles()
	if len(got) != 2 {
		t.Fatalf("missing file kept in list: %v", got)
	}

	if err := m.ClearRecentFiles(); err != nil {
		t.Fatal(err)
	}
	if len(m.RecentFiles()) != 0 {
		t.Error("clear failed")
	}
}
