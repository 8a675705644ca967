package validator_test

import (
	"errors"
	"testing"

	"github.com/marcodd23/go-stmt-cache/pkg/dbx"
	"github.com/marcodd23/go-stmt-cache/pkg/validator"
	"github.com/stretchr/testify/require"
)

func TestValidate_ConnConfig(t *testing.T) {
	valid := dbx.ConnConfig{
		IsLocalEnv: true,
		Host:       "localhost",
		Port:       5432,
		DBName:     "main-db",
		User:       "postgres",
		Password:   "password",
	}
	require.NoError(t, validator.NewValidator().Validate(valid))
}

func TestValidate_ConnConfigErrors(t *testing.T) {
	limit := -1
	invalid := dbx.ConnConfig{
		IsLocalEnv:     true,
		Port:           70000,
		User:           "postgres",
		Password:       "password",
		StatementLimit: &limit,
	}

	err := validator.NewValidator().Validate(invalid)
	require.Error(t, err)

	var valErr *validator.ValidationError
	require.True(t, errors.As(err, &valErr))

	fields := map[string]string{}
	for _, e := range valErr.GetErrorsDetails() {
		fields[e.FailedField] = e.Tag
	}
	require.Equal(t, "required_if", fields["ConnConfig.Host"])
	require.Equal(t, "lte", fields["ConnConfig.Port"])
	require.Equal(t, "required", fields["ConnConfig.DBName"])
	require.Equal(t, "gte", fields["ConnConfig.StatementLimit"])

	require.Contains(t, err.Error(), `"failedField":"ConnConfig.DBName"`)
}
