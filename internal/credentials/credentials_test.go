package credentials

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fachebot/session-brief/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(env map[string]string, files ...string) *Store {
	s := NewStore(&config.Credentials{EnvFiles: files})
	s.getenv = func(name string) string { return env[name] }
	return s
}

func writeEnvFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLookup_EnvironmentFirst(t *testing.T) {
	file := writeEnvFile(t, t.TempDir(), "GEMINI_API_KEY=from-file\n")
	s := newTestStore(map[string]string{"GEMINI_API_KEY": "from-env"}, file)

	v, ok := s.Lookup("GEMINI_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "from-env", v)
}

func TestLookup_FallsBackToEnvFiles(t *testing.T) {
	first := writeEnvFile(t, t.TempDir(), "OTHER=1\n")
	second := writeEnvFile(t, t.TempDir(), "# comment\nGEMINI_API_KEY=\"quoted-key\"\n")
	s := newTestStore(nil, filepath.Join(t.TempDir(), "missing.env"), first, second)

	v, ok := s.Lookup("GEMINI_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "quoted-key", v)
}

func TestLookup_NamesInOrder(t *testing.T) {
	s := newTestStore(map[string]string{"GOOGLE_API_KEY": "google"})

	v, ok := s.Lookup("GEMINI_API_KEY", "GOOGLE_API_KEY")
	assert.True(t, ok)
	assert.Equal(t, "google", v)
}

func TestLookup_NotFound(t *testing.T) {
	file := writeEnvFile(t, t.TempDir(), "GEMINI_API_KEY=\n")
	s := newTestStore(nil, file)

	v, ok := s.Lookup("GEMINI_API_KEY")
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "abc", unquote(` "abc" `))
	assert.Equal(t, "abc", unquote(`'abc'`))
	assert.Equal(t, "", unquote(""))
}
