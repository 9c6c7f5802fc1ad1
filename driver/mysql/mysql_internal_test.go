package mysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeEscapedCursorTableName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   DriverConfig
		expected string
	}{
		/* s0 */ {
			name:     "test s0: table only",
			config:   DriverConfig{CursorTableName: "kasoru_cursor"},
			expected: "`kasoru_cursor`",
		},
		/* s1 */ {
			name:     "test s1: database and table",
			config:   DriverConfig{DatabaseName: "app", CursorTableName: "kasoru_cursor"},
			expected: "`app`.`kasoru_cursor`",
		},
		/* s2 */ {
			name:     "test s2: backticks are doubled",
			config:   DriverConfig{DatabaseName: "a`b", CursorTableName: "odd`table"},
			expected: "`a``b`.`odd``table`",
		},
		/* s3 */ {
			name:     "test s3: quotes and backslashes are kept as is",
			config:   DriverConfig{CursorTableName: `it's "a\table"`},
			expected: "`it's \"a\\table\"`",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			drv := &mysqlDriver{config: test.config}
			assert.Equal(t, test.expected, drv.makeEscapedCursorTableName())
		})
	}
}
