package errorx_test

import (
	"errors"
	"io"
	"testing"

	"github.com/marcodd23/go-stmt-cache/pkg/errorx"
	"github.com/stretchr/testify/require"
)

func TestDatabaseErrorWrapper(t *testing.T) {
	err := errorx.NewDatabaseErrorWrapper(io.ErrUnexpectedEOF, "failed to prepare statement '%s'", "SELECT 1")

	require.Equal(t, "failed to prepare statement 'SELECT 1': unexpected EOF", err.Error())
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	var dbErr *errorx.DatabaseError
	require.True(t, errors.As(error(err), &dbErr))
}

func TestGeneralError(t *testing.T) {
	require.Equal(t, "statement limit -1", errorx.NewGeneralError("statement limit %d", -1).Error())

	wrapped := errorx.NewGeneralErrorWrapper(io.EOF, "closing")
	require.Equal(t, "closing # Error wrap: EOF", wrapped.Error())
	require.ErrorIs(t, wrapped, io.EOF)
	require.Nil(t, errorx.NewGeneralError("x").Unwrap())
}
