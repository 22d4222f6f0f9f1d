package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFlagsRequest(t *testing.T) {
	_, err := (&sourceFlags{}).request(strings.NewReader(""))
	assert.Error(t, err, "a source is required")

	req, err := (&sourceFlags{file: "-"}).request(strings.NewReader("c3M6Ly8="))
	require.NoError(t, err)
	assert.Equal(t, "c3M6Ly8=", string(req.Blob))

	path := filepath.Join(t.TempDir(), "sub.txt")
	require.NoError(t, os.WriteFile(path, []byte("blob"), 0o600))
	req, err = (&sourceFlags{file: path, urls: []string{"https://example.com/sub"}}).request(nil)
	require.NoError(t, err)
	assert.Equal(t, "blob", string(req.Blob))
	assert.Equal(t, []string{"https://example.com/sub"}, req.SubscriptionURLs)

	_, err = (&sourceFlags{file: filepath.Join(t.TempDir(), "missing")}).request(nil)
	assert.Error(t, err)
}
