package ingest

import (
	"encoding/csv"
	"os"
	"strconv"

	"hotpot/herr"
)

// LoadJoinCSV reads a metadata CSV for `import --join`. The first
// column is the join key (a file's base name, without extension); the
// remaining columns become properties merged onto the matching
// activity after ingest, with bool/number/string inferred per value.
func LoadJoinCSV(path string) (map[string]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, herr.IO(path, "failed to open join CSV", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, herr.Parse(path, "failed to parse join CSV", err)
	}
	if len(rows) < 1 {
		return map[string]map[string]any{}, nil
	}

	header := rows[0]
	out := make(map[string]map[string]any, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		key := row[0]
		props := map[string]any{}
		for i := 1; i < len(row) && i < len(header); i++ {
			props[header[i]] = inferScalar(row[i])
		}
		out[key] = props
	}
	return out, nil
}

func inferScalar(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
