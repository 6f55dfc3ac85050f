package stats

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestPC1LoadingsDominantColumn(t *testing.T) {
	// One column carries nearly all the shared variance; after
	// standardization its loading must rank at the top together with the
	// column it is correlated with.
	rng := rand.New(rand.NewSource(7))
	columns := []string{"signal", "echo", "noise"}
	rows := make([][]float64, 0, 200)
	for i := 0; i < 200; i++ {
		s := rng.NormFloat64()
		rows = append(rows, []float64{
			s,
			s + 0.01*rng.NormFloat64(),
			rng.NormFloat64(),
		})
	}

	loadings, err := PC1Loadings(columns, rows)
	if err != nil {
		t.Fatalf("PC1Loadings: %v", err)
	}
	if len(loadings) != 3 {
		t.Fatalf("got %d loadings, want 3", len(loadings))
	}
	if loadings[2].Column != "noise" {
		t.Errorf("uncorrelated column should rank last, got order %v", loadings)
	}
	if loadings[0].Weight < loadings[1].Weight || loadings[1].Weight < loadings[2].Weight {
		t.Errorf("loadings not sorted descending: %v", loadings)
	}
	for _, l := range loadings {
		if l.Weight < 0 {
			t.Errorf("loading %q is negative: %f", l.Column, l.Weight)
		}
	}
}

func TestPC1LoadingsConstantColumn(t *testing.T) {
	columns := []string{"flat", "varied"}
	rows := [][]float64{{1, 0.1}, {1, 0.9}, {1, 0.4}}

	loadings, err := PC1Loadings(columns, rows)
	if err != nil {
		t.Fatalf("a constant column must not break the decomposition: %v", err)
	}
	if loadings[0].Column != "varied" {
		t.Errorf("all variance sits in %q, got order %v", "varied", loadings)
	}
}

func TestPC1LoadingsTooFewRows(t *testing.T) {
	if _, err := PC1Loadings([]string{"a"}, [][]float64{{1}}); err == nil {
		t.Fatal("a single row must return an error")
	}
}

func TestPC1LoadingsRaggedRow(t *testing.T) {
	rows := [][]float64{{1, 2}, {3}}
	if _, err := PC1Loadings([]string{"a", "b"}, rows); err == nil {
		t.Fatal("a ragged row must return an error")
	}
}

func writeScoresCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMetricColumns(t *testing.T) {
	path := writeScoresCSV(t,
		"id,h_bleu,extra,h_rouge\n"+
			"1,0.5,x,0.7\n"+
			"2,,x,0.2\n"+ // missing value
			"3,0.1,x,abc\n"+ // unparsable
			"4,0.9,x,NaN\n"+ // non-finite
			"5,0.3,x,0.4\n")

	rows, err := LoadMetricColumns(path, []string{"h_bleu", "h_rouge"})
	if err != nil {
		t.Fatalf("LoadMetricColumns: %v", err)
	}

	want := [][]float64{{0.5, 0.7}, {0.3, 0.4}}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d col %d = %f, want %f", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestLoadMetricColumnsMissingColumn(t *testing.T) {
	path := writeScoresCSV(t, "id,h_bleu\n1,0.5\n")
	if _, err := LoadMetricColumns(path, []string{"h_bleu", "h_rouge"}); err == nil {
		t.Fatal("an absent column must return an error")
	}
}

func TestLoadMetricColumnsMissingFile(t *testing.T) {
	if _, err := LoadMetricColumns(filepath.Join(t.TempDir(), "missing.csv"), FaithfulnessColumns); err == nil {
		t.Fatal("a missing file must return an error")
	}
}
