package lexica

import (
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"
)

// shardRow is one dataset row reduced to the fields the pipeline consumes.
type shardRow struct {
	prompt      string
	url         string
	inlineBytes []byte
}

// readShard loads one parquet shard column-wise. Shards are not uniform:
// the prompt lives in a `text` or `prompt` column, and the image reference
// is an `image` struct (inline `bytes` or nested `url`), a flat `url`
// column, or a plain string `image` column. Columns are located by name so
// any of these layouts reads with the same code.
func readShard(path string) ([]shardRow, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open shard: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetColumnReader(fr, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	num := pr.GetNumRows()
	if num == 0 {
		return nil, nil
	}

	promptCol, ok := findColumn(pr, "text")
	if !ok {
		promptCol, ok = findColumn(pr, "prompt")
	}
	if !ok {
		return nil, fmt.Errorf("shard has no text or prompt column")
	}
	prompts, err := readStringColumn(pr, promptCol, num)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt column: %w", err)
	}

	var inline, urls []*string
	if col, ok := findColumn(pr, "image", "bytes"); ok {
		if inline, err = readStringColumn(pr, col, num); err != nil {
			return nil, fmt.Errorf("failed to read image bytes column: %w", err)
		}
	}
	if col, ok := findColumn(pr, "image", "url"); ok {
		urls, err = readStringColumn(pr, col, num)
	} else if col, ok := findColumn(pr, "url"); ok {
		urls, err = readStringColumn(pr, col, num)
	} else if col, ok := findColumn(pr, "image"); ok && inline == nil {
		urls, err = readStringColumn(pr, col, num)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read image reference column: %w", err)
	}

	rows := make([]shardRow, 0, num)
	for i := int64(0); i < num; i++ {
		var row shardRow
		if s := at(prompts, i); s != nil {
			row.prompt = *s
		}
		if s := at(inline, i); s != nil && *s != "" {
			row.inlineBytes = []byte(*s)
		}
		if s := at(urls, i); s != nil {
			row.url = *s
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// findColumn locates a leaf column whose trailing path segments match the
// given names, ignoring the schema root and letter case.
func findColumn(pr *reader.ParquetReader, suffix ...string) (string, bool) {
	for _, col := range pr.SchemaHandler.ValueColumns {
		parts := strings.Split(col, common.PAR_GO_PATH_DELIMITER)
		if len(parts)-1 < len(suffix) {
			continue
		}
		tail := parts[len(parts)-len(suffix):]
		match := true
		for i := range suffix {
			if !strings.EqualFold(tail[i], suffix[i]) {
				match = false
				break
			}
		}
		if match {
			return col, true
		}
	}
	return "", false
}

// readStringColumn reads a BYTE_ARRAY column as per-row optional strings,
// using definition levels to keep null rows aligned.
func readStringColumn(pr *reader.ParquetReader, colPath string, num int64) ([]*string, error) {
	vals, _, dls, err := pr.ReadColumnByPath(colPath, num)
	if err != nil {
		return nil, err
	}

	maxDL, err := pr.SchemaHandler.MaxDefinitionLevel(strings.Split(colPath, common.PAR_GO_PATH_DELIMITER))
	if err != nil {
		return nil, err
	}

	out := make([]*string, 0, len(dls))
	aligned := len(vals) == len(dls)
	vi := 0
	for i, dl := range dls {
		if dl < maxDL {
			out = append(out, nil)
			continue
		}
		var v interface{}
		if aligned {
			v = vals[i]
		} else if vi < len(vals) {
			v = vals[vi]
			vi++
		}
		if v == nil {
			out = append(out, nil)
			continue
		}
		s := asString(v)
		out = append(out, &s)
	}
	return out, nil
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprint(v)
}

func at(col []*string, i int64) *string {
	if col == nil || i >= int64(len(col)) {
		return nil
	}
	return col[i]
}
