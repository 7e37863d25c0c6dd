package service

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/talent-intake-api/pkg/errors"
)

func jsonMarshal(v interface{}) ([]byte, error) { return json.Marshal(v) }

func jsonUnmarshal(raw []byte, dest interface{}) error { return json.Unmarshal(raw, dest) }

func requireAppError(t *testing.T, err error, want *appErrors.Error) *appErrors.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	require.Equal(t, want.Code, appErr.Code, appErr.Message)
	return appErr
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
