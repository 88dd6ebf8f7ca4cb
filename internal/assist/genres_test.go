package assist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultGenres(t *testing.T) {
	genres := DefaultGenres()
	if len(genres) == 0 {
		t.Fatal("Default catalog is empty")
	}
	seen := make(map[string]bool)
	for _, g := range genres {
		if g.Tag == "" {
			t.Error("Default catalog contains an empty tag")
		}
		if seen[g.Tag] {
			t.Errorf("Duplicate tag %q", g.Tag)
		}
		seen[g.Tag] = true
	}
}

func TestLoadGenres_MissingFileUsesDefaults(t *testing.T) {
	genres, err := LoadGenres(filepath.Join(t.TempDir(), "genres.yaml"))
	if err != nil {
		t.Fatalf("LoadGenres failed: %v", err)
	}
	if diff := cmp.Diff(DefaultGenres(), genres); diff != "" {
		t.Errorf("Catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadGenres_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	doc := `genres:
  - tag: noir
    hint: rain and regret
  - tag: "   "
  - tag: pulp
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	genres, err := LoadGenres(path)
	if err != nil {
		t.Fatalf("LoadGenres failed: %v", err)
	}
	want := []Genre{
		{Tag: "noir", Hint: "rain and regret"},
		{Tag: "pulp"},
	}
	if diff := cmp.Diff(want, genres); diff != "" {
		t.Errorf("Catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadGenres_OnlyBlankTagsFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	if err := os.WriteFile(path, []byte("genres:\n  - hint: no tag here\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	genres, err := LoadGenres(path)
	if err != nil {
		t.Fatalf("LoadGenres failed: %v", err)
	}
	if diff := cmp.Diff(DefaultGenres(), genres); diff != "" {
		t.Errorf("Catalog mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadGenres_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	if err := os.WriteFile(path, []byte("genres: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGenres(path); err == nil {
		t.Fatal("Expected a parse error")
	}
}

func TestFindGenre(t *testing.T) {
	catalog := []Genre{{Tag: "noir", Hint: "rain"}}

	if got := FindGenre(catalog, "NOIR"); got.Hint != "rain" {
		t.Errorf("FindGenre(NOIR) = %+v, want case-insensitive match", got)
	}
	if got := FindGenre(catalog, "cyberpunk"); got.Tag != "cyberpunk" || got.Hint != "" {
		t.Errorf("FindGenre(cyberpunk) = %+v, want bare passthrough", got)
	}
}
