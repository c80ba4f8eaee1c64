package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	t.Run("carries the offending raw value", func(t *testing.T) {
		err := NewParseError("date", "Oct 32, 2023, 1:24:12 PM", "no such day", nil)
		assert.Contains(t, err.Error(), "Oct 32, 2023, 1:24:12 PM")
		assert.True(t, IsValidationError(err))
	})

	t.Run("unwraps the cause", func(t *testing.T) {
		cause := errors.New("boom")
		err := WrapParse("csv", "x", cause)
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})
}

func TestSourceError(t *testing.T) {
	err := NewSourceError("strava", "export_*/activities.csv", nil)
	assert.True(t, IsSourceMissing(err))
	assert.Contains(t, err.Error(), "export_*/activities.csv")
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapStorage("upsert", "runs", cause)
	require.Error(t, err)

	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, cause)

	var storageErr *StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "runs", storageErr.Table)
}

func TestConfigError(t *testing.T) {
	err := NewConfigError("export", "HEC token not set", nil)
	assert.Contains(t, err.Error(), "export")
	assert.Contains(t, err.Error(), "HEC token not set")
}

func TestExportError(t *testing.T) {
	cause := fmt.Errorf("unexpected status")
	err := NewExportError("hec", "runs", 503, cause)
	assert.Contains(t, err.Error(), "503")
	assert.ErrorIs(t, err, cause)
}

func TestWrapHelpersNilPassthrough(t *testing.T) {
	assert.NoError(t, WrapIO("read", "/tmp/x", nil))
	assert.NoError(t, WrapStorage("insert", "sleep", nil))
	assert.NoError(t, WrapParse("json", "", nil))
}
