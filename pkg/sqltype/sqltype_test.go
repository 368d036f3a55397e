package sqltype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "INTEGER", CanonicalName(4))
	assert.Equal(t, "VARCHAR", CanonicalName(12))
	assert.Equal(t, "WCHAR VAR", CanonicalName(-11))
	assert.Equal(t, "NULL", CanonicalName(0))
	assert.Equal(t, Unknown, CanonicalName(9999))
	assert.Equal(t, Unknown, CanonicalName(-99))
}

func TestIsStringLike(t *testing.T) {
	for _, code := range []int{Char, Varchar, LongVarchar, WChar, WVarchar, WCharVar} {
		assert.True(t, IsStringLike(code), CanonicalName(code))
	}
	for _, code := range []int{Integer, Decimal, Timestamp, Binary, RowID, Null, 9999} {
		assert.False(t, IsStringLike(code), CanonicalName(code))
	}
}

func TestCodeForDatabaseType(t *testing.T) {
	tests := map[string]int{
		"VARCHAR":       Varchar,
		"varchar(20)":   Varchar,
		"NVARCHAR":      WVarchar,
		"INT4":          Integer,
		"bpchar":        Char,
		"TEXT":          LongVarchar,
		"TIMESTAMPTZ":   Timestamp,
		"GEOMETRY":      Null,
		"":              Null,
		" DECIMAL(9,2)": Decimal,
	}
	for name, want := range tests {
		assert.Equal(t, want, CodeForDatabaseType(name), name)
	}
}
