// Package stats computes the principal-component loadings reported by the
// metric analysis pipeline.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// FaithfulnessColumns is the fixed metric group scoring caption faithfulness.
var FaithfulnessColumns = []string{
	"h_bleu", "h_rouge", "h_bert",
	"h_cosine", "h_entail", "h_novelty", "h_lora",
}

// RichnessColumns is the fixed metric group scoring caption richness.
var RichnessColumns = []string{
	"ttr_diff", "density_diff", "adj_ratio_diff",
	"noun_ratio_diff", "verb_ratio_diff", "ner_diff",
}

// Loading is the absolute weight of one metric column on the first
// principal component.
type Loading struct {
	Column string
	Weight float64
}

// PC1Loadings standardizes each column to zero mean and unit variance, fits
// a one-component principal-component decomposition and returns the absolute
// loadings sorted descending.
// Parameters:
//   - columns: metric column names, in table column order.
//   - rows: complete metric rows (no missing values).
//
// Returns:
//   - []Loading: per-column absolute loadings, largest first.
//   - error: non-nil when there is too little data to decompose.
func PC1Loadings(columns []string, rows [][]float64) ([]Loading, error) {
	n := len(rows)
	d := len(columns)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 complete rows, got %d", n)
	}
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), d)
		}
	}

	x := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		for i := 0; i < n; i++ {
			col[i] = rows[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 {
			// Constant column carries no variance; keep it centered.
			std = 1
		}
		for i := 0; i < n; i++ {
			x.Set(i, j, (col[i]-mean)/std)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	loadings := make([]Loading, d)
	for j := 0; j < d; j++ {
		loadings[j] = Loading{
			Column: columns[j],
			Weight: math.Abs(vecs.At(j, 0)),
		}
	}
	sort.SliceStable(loadings, func(i, j int) bool {
		return loadings[i].Weight > loadings[j].Weight
	})
	return loadings, nil
}
