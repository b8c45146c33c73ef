package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(path, []byte("  file-secret\n"), 0o600))

	got, err := Load(Source{Name: "api key", File: path, Value: "inline-secret"})
	require.NoError(t, err)
	assert.Equal(t, "file-secret", got, "file must win over inline value")
}

func TestLoadFromValue(t *testing.T) {
	got, err := Load(Source{Name: "api key", Value: " inline-secret "})
	require.NoError(t, err)
	assert.Equal(t, "inline-secret", got)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JOBSHEET_TEST_SECRET", "env-secret")

	got, err := Load(Source{Name: "api key", Env: "JOBSHEET_TEST_SECRET"})
	require.NoError(t, err)
	assert.Equal(t, "env-secret", got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(Source{Name: "api key"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is not configured")

	emptyFile := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(emptyFile, []byte("  \n"), 0o600))
	_, err = Load(Source{Name: "api key", File: emptyFile})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")

	_, err = Load(Source{File: filepath.Join(t.TempDir(), "missing")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret")
}
