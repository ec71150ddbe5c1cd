package fs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTestFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "tests", "token.rtt.yaml"))
	touch(t, filepath.Join(root, "tests", "nested", "Helpers.RTT.yaml"))
	touch(t, filepath.Join(root, "tests", "notes.yaml"))
	touch(t, filepath.Join(root, ".git", "x.rtt.yaml"))
	touch(t, filepath.Join(root, "node_modules", "pkg", "y.rtt.yaml"))
	touch(t, filepath.Join(root, "build", "z.rtt.yaml"))

	files, err := NewTestFileIndexerAdapter().FindTestFiles(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "tests", "nested", "Helpers.RTT.yaml"),
		filepath.Join(root, "tests", "token.rtt.yaml"),
	}, files)
}

func TestFindTestFiles_Cancelled(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.rtt.yaml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTestFileIndexerAdapter().FindTestFiles(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}
