package presets

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "presets.json"))
}

func TestSaveGetRoundTrip(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.Save("Discord GIF", "gif", json.RawMessage(`{"fps":15,"width":480}`))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.CreatedAt.IsZero() {
		t.Error("created_at not stamped")
	}

	got, err := store.Get("Discord GIF")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.OptionsJSON) != `{"fps":15,"width":480}` {
		t.Errorf("options = %s", got.OptionsJSON)
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Save("x264 fast", "encode", json.RawMessage(`{"crf":23}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Save("x264 fast", "encode", json.RawMessage(`{"crf":18}`)); err != nil {
		t.Fatal(err)
	}

	all, err := store.List("")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("presets = %d, want 1", len(all))
	}
	if string(all[0].OptionsJSON) != `{"crf":18}` {
		t.Errorf("options = %s", all[0].OptionsJSON)
	}
}

func TestListFiltersByTaskType(t *testing.T) {
	store := newTestStore(t)
	store.Save("b encode", "encode", nil)
	store.Save("a gif", "gif", nil)
	store.Save("c gif", "gif", nil)

	gifs, err := store.List("gif")
	if err != nil {
		t.Fatal(err)
	}
	if len(gifs) != 2 || gifs[0].Name != "a gif" || gifs[1].Name != "c gif" {
		t.Errorf("gifs = %+v", gifs)
	}

	all, _ := store.List("")
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	store.Save("doomed", "trim", nil)

	if err := store.Delete("doomed"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete("doomed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}
	if _, err := store.Get("doomed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestSaveRejectsEmptyName(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save("  ", "encode", nil); err == nil {
		t.Error("accepted blank preset name")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	store := newTestStore(t)
	all, err := store.List("")
	if err != nil {
		t.Fatalf("List on fresh store: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("fresh store has %d presets", len(all))
	}
}
