// Package sqltype maps vendor column type codes to canonical type names.
//
// Codes follow the ODBC SQL data type numbering. Lookups are total: unknown
// codes map to Unknown and are never string-like.
package sqltype

import "strings"

// Unknown is the canonical name for unrecognised codes.
const Unknown = "UNKNOWN"

// Vendor type codes.
const (
	WCharVar    = -11
	WChar       = -10
	WVarchar    = -9
	RowID       = -8
	Bit         = -7
	TinyInt     = -6
	BigInt      = -5
	LongVarbin  = -4
	Varbinary   = -3
	Binary      = -2
	LongVarchar = -1
	Null        = 0
	Char        = 1
	Numeric     = 2
	Decimal     = 3
	Integer     = 4
	SmallInt    = 5
	Float       = 6
	Real        = 7
	Double      = 8
	Date        = 9
	Time        = 10
	Timestamp   = 11
	Varchar     = 12
)

var names = map[int]string{
	Bit:         "BIT",
	TinyInt:     "TINYINT",
	BigInt:      "BIGINT",
	LongVarbin:  "LONGVARBINARY",
	Varbinary:   "VARBINARY",
	Binary:      "BINARY",
	LongVarchar: "LONGVARCHAR",
	Null:        "NULL",
	Char:        "CHAR",
	Numeric:     "NUMERIC",
	Decimal:     "DECIMAL",
	Integer:     "INTEGER",
	SmallInt:    "SMALLINT",
	Float:       "FLOAT",
	Real:        "REAL",
	Double:      "DOUBLE",
	Date:        "DATE",
	Time:        "TIME",
	Timestamp:   "TIMESTAMP",
	Varchar:     "VARCHAR",
	RowID:       "ROWID",
	WVarchar:    "WVARCHAR",
	WChar:       "WCHAR",
	WCharVar:    "WCHAR VAR",
}

var stringLike = map[int]struct{}{
	Char:        {},
	Varchar:     {},
	LongVarchar: {},
	WChar:       {},
	WVarchar:    {},
	WCharVar:    {},
}

// CanonicalName returns the canonical name of code, or Unknown.
func CanonicalName(code int) string {
	if name, ok := names[code]; ok {
		return name
	}
	return Unknown
}

// IsStringLike reports whether code is a character or text type.
func IsStringLike(code int) bool {
	_, ok := stringLike[code]
	return ok
}

// driverTypes maps database/sql DatabaseTypeName values to vendor codes.
// Names are upper-cased before lookup.
var driverTypes = map[string]int{
	// character
	"CHAR":              Char,
	"CHARACTER":         Char,
	"BPCHAR":            Char,
	"NCHAR":             WChar,
	"VARCHAR":           Varchar,
	"CHARACTER VARYING": Varchar,
	"STRING":            Varchar,
	"NVARCHAR":          WVarchar,
	"TEXT":              LongVarchar,
	"NTEXT":             WCharVar,
	"CLOB":              LongVarchar,
	"LONG VARCHAR":      LongVarchar,
	"GRAPHIC":           WChar,
	"VARGRAPHIC":        WVarchar,
	"UUID":              Char,
	"NAME":              Varchar,

	// numeric
	"BIT":              Bit,
	"BOOL":             Bit,
	"BOOLEAN":          Bit,
	"TINYINT":          TinyInt,
	"SMALLINT":         SmallInt,
	"INT2":             SmallInt,
	"INT":              Integer,
	"INT4":             Integer,
	"INTEGER":          Integer,
	"BIGINT":           BigInt,
	"INT8":             BigInt,
	"HUGEINT":          Numeric,
	"DECIMAL":          Decimal,
	"NUMERIC":          Numeric,
	"MONEY":            Decimal,
	"FLOAT":            Float,
	"FLOAT4":           Real,
	"REAL":             Real,
	"FLOAT8":           Double,
	"DOUBLE":           Double,
	"DOUBLE PRECISION": Double,

	// temporal
	"DATE":        Date,
	"TIME":        Time,
	"TIMETZ":      Time,
	"TIMESTAMP":   Timestamp,
	"TIMESTAMPTZ": Timestamp,
	"DATETIME":    Timestamp,
	"DATETIME2":   Timestamp,

	// binary
	"BINARY":    Binary,
	"VARBINARY": Varbinary,
	"BLOB":      LongVarbin,
	"BYTEA":     LongVarbin,
	"IMAGE":     LongVarbin,
}

// CodeForDatabaseType maps a driver-reported type name to a vendor code.
// Length or precision suffixes such as "VARCHAR(20)" are ignored. Unknown
// names map to Null.
func CodeForDatabaseType(name string) int {
	n := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	if code, ok := driverTypes[n]; ok {
		return code
	}
	return Null
}
