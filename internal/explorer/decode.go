package explorer

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/sqlbatch/pkg/core"
)

// Key aliases per result kind. Row keys are upper-cased before lookup, so
// "label" and "LABEL" both match.
var (
	databaseKeys = map[string]string{
		"NAME":          "DATABASE",
		"DATNAME":       "DATABASE",
		"DATABASE_NAME": "DATABASE",
		"TABLE_SCHEMA":  "DATABASE",
	}
	tableKeys = map[string]string{
		"LABEL":       "TABLE_NAME",
		"NAME":        "TABLE_NAME",
		"TYPE":        "TABLE_TYPE",
		"SCHEMA_NAME": "TABLE_SCHEMA",
	}
	columnKeys = map[string]string{
		"LABEL":      "COLUMN_NAME",
		"NAME":       "COLUMN_NAME",
		"TABLE":      "TABLE_NAME",
		"DATATYPE":   "DATA_TYPE",
		"ISNULLABLE": "IS_NULLABLE",
		"CID":        "ORDINAL_POSITION",
	}
)

// normalize upper-cases row keys and applies aliases. A canonical key that
// is already present wins over an alias.
func normalize(row core.Row, aliases map[string]string) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		key := strings.ToUpper(k)
		if _, taken := out[key]; !taken {
			out[key] = v
		}
	}
	for from, to := range aliases {
		if v, ok := out[from]; ok {
			if _, exists := out[to]; !exists {
				out[to] = v
			}
		}
	}
	return out
}

func decode(in map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}

func decodeAll[T any](rows []core.Row, aliases map[string]string) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := decode(normalize(row, aliases), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
