// Package cache is a content-addressed store for compiled artifacts,
// keyed by a digest of the input bytes and the compile options. Entries
// are LZ4 block compressed on disk so warm CLI runs skip both compilation
// and most of the write amplification.
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// headerSize is the uncompressed-length prefix in bytes.
const headerSize = 8

// entryPerm and dirPerm are the on-disk permissions for cache entries.
const (
	entryPerm = 0o600
	dirPerm   = 0o750
)

// ErrCorruptEntry marks an entry whose header or payload cannot be read.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Cache stores artifacts under a single directory, one file per key.
type Cache struct {
	dir string
}

// Open creates (if needed) and opens a cache directory.
func Open(dir string) (*Cache, error) {
	err := os.MkdirAll(dir, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("open cache dir: %w", err)
	}

	return &Cache{dir: dir}, nil
}

// Key derives the cache key for an input and the option fingerprint.
func Key(input []byte, options string) string {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte{0})
	h.Write([]byte(options))

	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the stored artifact for key, or false on a miss. Corrupt
// entries count as misses and are removed.
func (c *Cache) Get(key string) ([]byte, bool) {
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	data, err := decode(raw)
	if err != nil {
		_ = os.Remove(c.path(key))

		return nil, false
	}

	return data, true
}

// Put stores an artifact under key.
func (c *Cache) Put(key string, data []byte) error {
	encoded := encode(data)

	err := os.WriteFile(c.path(key), encoded, entryPerm)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".lz4")
}

// encode prefixes the uncompressed length and LZ4 block compresses the
// payload. Payloads that do not shrink are stored raw; decode tells the
// two apart by comparing payload length against the header.
func encode(data []byte) []byte {
	buf := make([]byte, headerSize+lz4.CompressBlockBound(len(data)))
	binary.LittleEndian.PutUint64(buf[:headerSize], uint64(len(data)))

	written, err := lz4.CompressBlock(data, buf[headerSize:], nil)
	if err != nil || written == 0 || written >= len(data) {
		out := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint64(out[:headerSize], uint64(len(data)))
		copy(out[headerSize:], data)

		return out
	}

	return buf[:headerSize+written]
}

func decode(raw []byte) ([]byte, error) {
	if len(raw) < headerSize {
		return nil, ErrCorruptEntry
	}

	size := binary.LittleEndian.Uint64(raw[:headerSize])
	payload := raw[headerSize:]

	if uint64(len(payload)) == size {
		// Raw entry.
		out := make([]byte, size)
		copy(out, payload)

		return out, nil
	}

	out := make([]byte, size)

	n, err := lz4.UncompressBlock(payload, out)
	if err != nil || uint64(n) != size {
		return nil, ErrCorruptEntry
	}

	return out, nil
}
