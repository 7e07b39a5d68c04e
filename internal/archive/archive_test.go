package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

func TestSaveLoadRoundTrip(t *testing.T) {
	raw := []byte(`{"choices":[{"message":{"content":"Sorry, I can't produce JSON."}}]}` + "\n" +
		strings.Repeat("padding line for compression\n", 50))

	for _, compress := range []bool{true, false} {
		dir := t.TempDir()

		path, err := Save(dir, testID, raw, compress)
		if err != nil {
			t.Fatalf("Save(compress=%v): %v", compress, err)
		}
		if path != Path(dir, testID, compress) {
			t.Errorf("path = %q", path)
		}

		if compress {
			info, _ := os.Stat(path)
			if info.Size() >= int64(len(raw)) {
				t.Errorf("compressed size %d not smaller than %d", info.Size(), len(raw))
			}
		}

		got, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if string(got) != string(raw) {
			t.Errorf("content mismatch (compress=%v)", compress)
		}
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()

	if _, ok := Find(dir, testID); ok {
		t.Error("found archive before saving")
	}

	if _, err := Save(dir, testID, []byte("raw"), false); err != nil {
		t.Fatal(err)
	}
	path, ok := Find(dir, testID)
	if !ok || path != filepath.Join(dir, testID+".txt") {
		t.Errorf("Find = %q, %v", path, ok)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	ids, err := List(filepath.Join(dir, "missing"))
	if err != nil || len(ids) != 0 {
		t.Fatalf("missing dir: %v %v", ids, err)
	}

	for _, id := range []string{"b", "a"} {
		if _, err := Save(dir, id, []byte("x"), id == "a"); err != nil {
			t.Fatal(err)
		}
	}
	os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755)

	ids, err = List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("ids = %v", ids)
	}
}

func TestSave_RejectsPathIDs(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []string{"", "..", "../escape", `a\b`} {
		if _, err := Save(dir, id, []byte("x"), true); err == nil {
			t.Errorf("Save(%q) should fail", id)
		}
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.txt.zst")); err == nil {
		t.Error("expected error for missing archive")
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt.zst")
	os.WriteFile(path, []byte("not zstd data"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for corrupt archive")
	}
}
