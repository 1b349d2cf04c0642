package usecase_test

import (
	"testing"

	"shopapi/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "not an HTTPError: %v", err)
	assert.Equal(t, status, he.Status)
	assert.Equal(t, msg, he.Message)
}

func ptr[T any](v T) *T { return &v }
