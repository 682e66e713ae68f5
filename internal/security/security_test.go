package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("Account Name,Stage\n"), 0o644))
	return path
}

func TestValidateOpenPathAllowed(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.csv")

	mgr, err := NewManager([]string{dir}, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.ValidateConfig())

	canonical, err := mgr.ValidateOpenPath(path)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(canonical))
}

func TestValidateOpenPathOutsideRoots(t *testing.T) {
	inside := t.TempDir()
	outside := t.TempDir()
	path := writeFile(t, outside, "report.csv")

	mgr, err := NewManager([]string{inside}, nil)
	require.NoError(t, err)

	_, err = mgr.ValidateOpenPath(path)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPathExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "report.exe")

	mgr, err := NewManager([]string{dir}, nil)
	require.NoError(t, err)

	_, err = mgr.ValidateOpenPath(path)
	require.ErrorIs(t, err, ErrUnsupportedExtension)

	_, err = mgr.ValidateOpenPath("")
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateOpenPathMissingFile(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager([]string{dir}, nil)
	require.NoError(t, err)

	_, err = mgr.ValidateOpenPath(filepath.Join(dir, "absent.csv"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestValidateOpenPathSymlinkEscape(t *testing.T) {
	inside := t.TempDir()
	outside := t.TempDir()
	target := writeFile(t, outside, "secret.csv")

	link := filepath.Join(inside, "link.csv")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	mgr, err := NewManager([]string{inside}, nil)
	require.NoError(t, err)

	_, err = mgr.ValidateOpenPath(link)
	require.ErrorIs(t, err, ErrNotAllowed)
}

func TestValidateConfigEmpty(t *testing.T) {
	mgr, err := NewManager(nil, nil)
	require.NoError(t, err)
	require.Error(t, mgr.ValidateConfig())
}

func TestNewManagerRejectsBadExtension(t *testing.T) {
	_, err := NewManager(nil, []string{"csv"})
	require.Error(t, err)
}
