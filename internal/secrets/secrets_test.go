package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "webhook")
	require.NoError(t, os.WriteFile(path, []byte("  https://discord.example/hook\n"), 0o600))

	t.Setenv("WARD_TEST_SECRET", "from-env")
	t.Setenv("WARD_TEST_SECRET_FILE", path)

	got, err := Get("WARD_TEST_SECRET", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "https://discord.example/hook", got)
}

func TestGetFallsBack(t *testing.T) {
	t.Setenv("WARD_TEST_SECRET", "from-env")
	got, err := Get("WARD_TEST_SECRET", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = Get("WARD_TEST_UNSET_SECRET", "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)
}

func TestOptionalSwallowsMissingFile(t *testing.T) {
	t.Setenv("WARD_TEST_SECRET_FILE", filepath.Join(t.TempDir(), "missing"))

	_, err := Get("WARD_TEST_SECRET", "")
	assert.Error(t, err)
	assert.Equal(t, "fallback", Optional("WARD_TEST_SECRET", "fallback"))
}
