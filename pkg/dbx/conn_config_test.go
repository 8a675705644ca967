package dbx_test

import (
	"testing"

	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/stmtcache"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestStatementCapacity(t *testing.T) {
	tests := []struct {
		name     string
		conf     dbx.ConnConfig
		expected int
	}{
		{name: "default limit", conf: dbx.ConnConfig{}, expected: dbx.DefaultStatementLimit},
		{name: "explicit limit", conf: dbx.ConnConfig{StatementLimit: ptr(25)}, expected: 25},
		{name: "zero disables", conf: dbx.ConnConfig{StatementLimit: ptr(0)}, expected: 0},
		{name: "prepared statements on", conf: dbx.ConnConfig{PreparedStatements: ptr(true), StatementLimit: ptr(3)}, expected: 3},
		{name: "prepared statements off", conf: dbx.ConnConfig{PreparedStatements: ptr(false), StatementLimit: ptr(300)}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capacity, err := tt.conf.StatementCapacity()
			require.NoError(t, err)
			require.Equal(t, tt.expected, capacity)
		})
	}
}

func TestStatementCapacity_Negative(t *testing.T) {
	_, err := dbx.ConnConfig{StatementLimit: ptr(-5)}.StatementCapacity()
	require.Error(t, err)
	require.ErrorIs(t, err, stmtcache.ErrNegativeCapacity)
	require.Contains(t, err.Error(), "invalid statement limit -5")
}
