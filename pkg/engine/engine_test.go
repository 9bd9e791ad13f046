package engine

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/sanonone/pbg/pkg/core"
	"github.com/sanonone/pbg/pkg/persistence"
)

func TestEngineReplaysGraphLog(t *testing.T) {
	// 1. Build and persist
	tmpDir := t.TempDir()
	eng, err := Open(DefaultOptions(tmpDir))
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.AddVertex("main.c"); err != nil {
		t.Fatal(err)
	}
	if err := eng.AddVertex("main"); err != nil {
		t.Fatal(err)
	}
	if err := eng.AddEdge("main.c", "defines", "main"); err != nil {
		t.Fatal(err)
	}
	if err := eng.AddRelation("main", "has-var", "argc"); err != nil {
		t.Fatal(err)
	}
	if err := eng.AddRelation("main", "has-var", "argc"); err != nil {
		t.Fatal(err)
	}
	if err := eng.AddVertex("main.c:line-3"); err != nil {
		t.Fatal(err)
	}
	if err := eng.SetProperty("main.c:line-3", "text-at-pc", "0x00001000"); err != nil {
		t.Fatal(err)
	}
	if err := eng.Freeze(); err != nil {
		t.Fatal(err)
	}
	want := eng.Stats()
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	// 2. Reopen: the store must be rebuilt and frozen
	eng2, err := Open(DefaultOptions(tmpDir))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer eng2.Close()

	if got := eng2.Stats(); got != want {
		t.Errorf("stats after replay: got %+v, want %+v", got, want)
	}
	if !eng2.Store().Frozen() {
		t.Error("store should be frozen after replaying FREEZE")
	}

	sess := eng2.NewSession()
	if n := sess.V("main").OutDegree("has-var"); n != 2 {
		t.Errorf("parallel edges lost on replay: OutDegree %d", n)
	}
	got := sess.V().Has("text-at-pc", "0x00001000").ToArray()
	if !reflect.DeepEqual(got, []string{"main.c:line-3"}) {
		t.Errorf("property index after replay: %v", got)
	}
}

func TestEngineRejectsWritesAfterFreeze(t *testing.T) {
	eng, err := Open(DefaultOptions(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	if err := eng.Freeze(); err != nil {
		t.Fatal(err)
	}
	if err := eng.AddVertex("late"); !errors.Is(err, core.ErrStoreFrozen) {
		t.Errorf("expected ErrStoreFrozen, got %v", err)
	}
}

func TestEngineDoesNotLogInvalidOps(t *testing.T) {
	tmpDir := t.TempDir()
	eng, err := Open(DefaultOptions(tmpDir))
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.AddEdge("ghost", "x", "other"); !errors.Is(err, core.ErrVertexNotFound) {
		t.Fatalf("expected ErrVertexNotFound, got %v", err)
	}
	if err := eng.AddVertex("a"); err != nil {
		t.Fatal(err)
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	n, err := persistence.ReplayFile(eng.LogPath(), func(*persistence.Command) error { return nil })
	if err != nil || n != 1 {
		t.Errorf("log should hold one command, got n=%d err=%v", n, err)
	}
}

func TestEngineRejectsCorruptLog(t *testing.T) {
	tmpDir := t.TempDir()
	eng, err := Open(DefaultOptions(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	_ = eng.AddVertex("a")
	_ = eng.Close()

	data, err := os.ReadFile(eng.LogPath())
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(eng.LogPath(), data, 0666); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(DefaultOptions(tmpDir)); !errors.Is(err, persistence.ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestInMemoryEngine(t *testing.T) {
	eng, err := Open(Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	if err := eng.AddRelation("a", "b", "c"); err != nil {
		t.Fatal(err)
	}
	if err := eng.Freeze(); err != nil {
		t.Fatal(err)
	}
	if eng.LogPath() != "" {
		t.Errorf("in-memory engine has log path %q", eng.LogPath())
	}
	if got := eng.NewSession().V("a").Out("b").ToArray(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("got %v", got)
	}
}

func TestEngineReplaysIndexedValues(t *testing.T) {
	tmpDir := t.TempDir()
	eng, err := Open(DefaultOptions(tmpDir))
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.AddVertex("main.c:line-4"); err != nil {
		t.Fatal(err)
	}
	for _, pc := range []string{"0x00002000", "0x00002004"} {
		if err := eng.AddIndexedValue("main.c:line-4", "text-at-pc", pc); err != nil {
			t.Fatal(err)
		}
	}
	if err := eng.Close(); err != nil {
		t.Fatal(err)
	}

	eng2, err := Open(DefaultOptions(tmpDir))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer eng2.Close()

	want := []string{"0x00002000", "0x00002004"}
	if got := eng2.Store().PropertyValues("main.c:line-4", "text-at-pc"); !reflect.DeepEqual(got, want) {
		t.Errorf("indexed values after replay: %v", got)
	}
}

func TestEngineFailsAfterLogWriteError(t *testing.T) {
	eng, err := Open(DefaultOptions(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()

	if err := eng.AddVertex("a"); err != nil {
		t.Fatal(err)
	}

	// Close the file underneath the engine; a frame larger than the write
	// buffer reaches the file immediately and fails.
	_ = eng.log.Close()
	big := string(make([]byte, 8192))
	if err := eng.AddVertex("x" + big); err == nil {
		t.Fatal("expected the log append to fail")
	}
	if eng.Err() == nil {
		t.Fatal("engine should report the failure")
	}

	if err := eng.AddVertex("b"); !errors.Is(err, ErrEngineFailed) {
		t.Errorf("AddVertex after failure: %v", err)
	}
	if err := eng.Freeze(); !errors.Is(err, ErrEngineFailed) {
		t.Errorf("Freeze after failure: %v", err)
	}
	if eng.Store().HasVertex("b") {
		t.Error("rejected write reached the store")
	}
}
