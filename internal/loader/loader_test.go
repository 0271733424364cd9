package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestLoadAll_KeepsInputOrder(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		paths = append(paths, writeFile(t, dir, fmt.Sprintf("doc%d.txt", i), []byte(fmt.Sprintf("document number %d\n", i))))
	}

	sources, err := New(3, 0).LoadAll(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, sources, len(paths))

	for i, src := range sources {
		assert.Equal(t, paths[i], src.ID)
		assert.Equal(t, fmt.Sprintf("document number %d\n", i), src.Text)
	}
}

func TestLoadAll_MissingFile(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.txt", []byte("hello"))
	missing := filepath.Join(dir, "missing.txt")

	_, err := New(2, 0).LoadAll(context.Background(), []string{good, missing})
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, missing, loadErr.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_RejectsNonText(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "nul bytes", data: []byte("abc\x00\x00\x00def")},
		{name: "invalid utf8", data: []byte{'a', 0xff, 0xfe, 'b'}},
		{name: "png header", data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.data)
			_, err := New(1, 0).Load(path)
			assert.ErrorIs(t, err, ErrNotText)
		})
	}
}

func TestLoad_Directory(t *testing.T) {
	_, err := New(1, 0).Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNotText)
}

func TestLoad_SizeLimit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.txt", []byte("0123456789"))

	_, err := New(1, 5).Load(path)
	assert.ErrorContains(t, err, "limit is 5")

	src, err := New(1, 10).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", src.Text)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.txt", nil)

	src, err := New(1, 0).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "", src.Text)
}

func TestCheckText(t *testing.T) {
	assert.NoError(t, CheckText([]byte("def f(x):\n    return x\n")))
	assert.NoError(t, CheckText([]byte("héllo wörld")))
	assert.NoError(t, CheckText([]byte(`{"json": true}`)))
}
