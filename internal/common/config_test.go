package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactedDSN(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"mysql", "root:123456@tcp(127.0.0.1:3306)/mood?parseTime=True", "root:****@tcp(127.0.0.1:3306)/mood?parseTime=True"},
		{"postgres url", "postgres://mood:secret@db:5432/mood", "postgres://mood:****@db:5432/mood"},
		{"no credentials", "file:mood.db", "file:mood.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Config{DSN: tt.dsn}
			assert.Equal(t, tt.want, c.RedactedDSN())
		})
	}
}

func TestValidate(t *testing.T) {
	c := Config{DSN: "file::memory:", JWTSecret: "0123456789abcdef", ReminderAt: "20:30"}
	assert.NoError(t, c.Validate())

	c.ReminderAt = "8pm"
	assert.Error(t, c.Validate())

	c.ReminderAt = "20:30"
	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "0123456789abcdef"
	c.DSN = "  "
	assert.Error(t, c.Validate())
}

func TestReminderClock(t *testing.T) {
	c := Config{ReminderAt: "07:05"}
	h, m, err := c.ReminderClock()
	require.NoError(t, err)
	assert.Equal(t, 7, h)
	assert.Equal(t, 5, m)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nexport MOODTRACK_TEST_A=\"quoted\"\nMOODTRACK_TEST_B=plain # trailing\nMOODTRACK_TEST_C=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("MOODTRACK_TEST_C", "from-env")
	os.Unsetenv("MOODTRACK_TEST_A")
	os.Unsetenv("MOODTRACK_TEST_B")
	t.Cleanup(func() {
		os.Unsetenv("MOODTRACK_TEST_A")
		os.Unsetenv("MOODTRACK_TEST_B")
	})

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "quoted", os.Getenv("MOODTRACK_TEST_A"))
	assert.Equal(t, "plain", os.Getenv("MOODTRACK_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("MOODTRACK_TEST_C"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}
