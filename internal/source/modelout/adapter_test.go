package modelout

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeSample(t *testing.T, folder string, id string, withPrompt bool) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(folder, id+".png"), []byte("pngbytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if withPrompt {
		if err := os.WriteFile(filepath.Join(folder, id+".txt"), []byte("prompt for "+id+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestLoadItemsNumericOrderAndCap(t *testing.T) {
	base := t.TempDir()
	folder := filepath.Join(base, "T5")
	if err := os.Mkdir(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"10", "2", "1", "30", "4"} {
		writeSample(t, folder, id, true)
	}

	items, err := NewAdapter(base, "T5", 3).LoadItems(context.Background())
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}

	wantIDs := []string{"1", "2", "4"}
	if len(items) != len(wantIDs) {
		t.Fatalf("got %d items, want %d", len(items), len(wantIDs))
	}
	for i, want := range wantIDs {
		if items[i].ID != want {
			t.Errorf("position %d: got ID %q, want %q", i, items[i].ID, want)
		}
	}
	if items[0].Prompt != "prompt for 1" {
		t.Errorf("prompt = %q", items[0].Prompt)
	}
}

func TestLoadItemsSkipsMissingPrompt(t *testing.T) {
	base := t.TempDir()
	folder := filepath.Join(base, "BART")
	if err := os.Mkdir(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSample(t, folder, "1", true)
	writeSample(t, folder, "2", false) // no sibling .txt

	items, err := NewAdapter(base, "BART", 0).LoadItems(context.Background())
	if err != nil {
		t.Fatalf("LoadItems: %v", err)
	}
	if len(items) != 1 || items[0].ID != "1" {
		t.Errorf("items = %+v, want only id 1", items)
	}
}

func TestLoadItemsMissingFolder(t *testing.T) {
	if _, err := NewAdapter(t.TempDir(), "QWEN", 10).LoadItems(context.Background()); err == nil {
		t.Fatal("missing model folder must return an error")
	}
}
