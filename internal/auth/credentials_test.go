package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCache_RoundTrip(t *testing.T) {
	c := NewCache(t.TempDir())

	require.Nil(t, c.Load())

	err := c.Save(Credentials{UserID: "u1", Email: "a@b.com", Token: "tok"})
	require.NoError(t, err)

	got := c.Load()
	require.NotNil(t, got)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "a@b.com", got.Email)
	require.Equal(t, "tok", got.Token)
	require.False(t, got.SavedAt.IsZero())
}

func TestCache_RejectsEmptyToken(t *testing.T) {
	c := NewCache(t.TempDir())
	require.Error(t, c.Save(Credentials{UserID: "u1"}))
}

func TestCache_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir)
	require.NoError(t, c.Save(Credentials{Token: "tok"}))

	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCache_CorruptFileMeansLoggedOut(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "credentials.json"), []byte("{broken"), 0o600))
	require.Nil(t, NewCache(dir).Load())
}

func TestCache_Clear(t *testing.T) {
	c := NewCache(t.TempDir())
	require.NoError(t, c.Save(Credentials{Token: "tok"}))
	require.NoError(t, c.Clear())
	require.Nil(t, c.Load())
	// Clearing twice is fine.
	require.NoError(t, c.Clear())
}
