package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_DependsOnInputAndOptions(t *testing.T) {
	t.Parallel()

	a := Key([]byte("doc"), "strict=false")
	b := Key([]byte("doc"), "strict=true")
	c := Key([]byte("other"), "strict=false")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, Key([]byte("doc"), "strict=false"))
}

func TestCache_PutGetRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	require.NoError(t, err)

	payload := []byte(strings.Repeat("pub struct LoginForm {}\n", 200))
	key := Key(payload, "")

	require.NoError(t, c.Put(key, payload))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.True(t, bytes.Equal(payload, got))
}

func TestCache_MissReturnsFalse(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	require.NoError(t, err)

	_, ok := c.Get(Key([]byte("never stored"), ""))
	assert.False(t, ok)
}

func TestCache_IncompressiblePayloadStoredRaw(t *testing.T) {
	t.Parallel()

	c, err := Open(t.TempDir())
	require.NoError(t, err)

	// High-entropy-ish short payload that LZ4 will not shrink.
	payload := []byte{0x01, 0xA7, 0x3F, 0xE2, 0x19, 0x8C, 0x55, 0xDB}
	key := Key(payload, "")

	require.NoError(t, c.Put(key, payload))

	got, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, payload, got)
}

func TestCache_CorruptEntryIsMissAndRemoved(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := Open(dir)
	require.NoError(t, err)

	payload := []byte(strings.Repeat("abc", 100))
	key := Key(payload, "")
	require.NoError(t, c.Put(key, payload))

	// Truncate the entry below its header.
	entry := filepath.Join(dir, key+".lz4")
	require.NoError(t, os.WriteFile(entry, []byte{1, 2, 3}, 0o600))

	_, ok := c.Get(key)
	assert.False(t, ok)

	_, statErr := os.Stat(entry)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEncodeDecode_EmptyPayload(t *testing.T) {
	t.Parallel()

	decoded, err := decode(encode(nil))
	require.NoError(t, err)
	assert.Empty(t, decoded)
}
