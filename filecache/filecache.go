// Package filecache stores rendered report artifacts on disk.
//
// Each entry is one file named by the 128-bit xxh3 hash of its key. The file
// starts with an 8-byte big-endian expiry (Unix nanoseconds, zero for none),
// then the key behind a 4-byte length, then the artifact as an lz4 frame.
// Expired entries are detected without decompressing them, and a file whose
// stored key differs from the requested one is a miss.
package filecache

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/xxh3"
)

const (
	headerSize = 8
	keyLenSize = 4
	fileExt    = ".lz4"
)

// Store is a directory-backed artifact cache. It is safe for concurrent use
// by multiple goroutines and processes: writes land in a temporary file that
// is renamed into place.
type Store struct {
	dir string
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("filecache: %w", err)
	}
	s := &Store{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) path(key string) string {
	sum := xxh3.HashString128(key).Bytes()
	return filepath.Join(s.dir, hex.EncodeToString(sum[:])+fileExt)
}

// Get returns the artifact stored under key. Missing and expired entries are
// misses; expired files are removed.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("filecache: %w", err)
	}
	if len(data) < headerSize {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if expires := int64(binary.BigEndian.Uint64(data[:headerSize])); expires != 0 && s.now().UnixNano() >= expires {
		_ = os.Remove(path)
		return nil, false, nil
	}
	body, ok := stripKey(data[headerSize:], key)
	if !ok {
		return nil, false, nil
	}
	value, err := io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
	if err != nil {
		return nil, false, fmt.Errorf("filecache: decompress %s: %w", filepath.Base(path), err)
	}
	return value, true, nil
}

// Set stores value under key for ttl. A ttl of zero or less never expires.
func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var buf bytes.Buffer
	var header [headerSize]byte
	if ttl > 0 {
		binary.BigEndian.PutUint64(header[:], uint64(s.now().Add(ttl).UnixNano()))
	}
	buf.Write(header[:])
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(key))))
	buf.WriteString(key)
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(value); err != nil {
		return fmt.Errorf("filecache: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("filecache: compress: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "entry-*")
	if err != nil {
		return fmt.Errorf("filecache: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("filecache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("filecache: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("filecache: %w", err)
	}
	return nil
}

// stripKey checks the key stored at the start of data and returns what
// follows it.
func stripKey(data []byte, key string) ([]byte, bool) {
	if len(data) < keyLenSize {
		return nil, false
	}
	n := int(binary.BigEndian.Uint32(data[:keyLenSize]))
	data = data[keyLenSize:]
	if n > len(data) || string(data[:n]) != key {
		return nil, false
	}
	return data[n:], true
}

// Prune removes every expired entry and reports how many were removed.
func (s *Store) Prune() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("filecache: %w", err)
	}
	now := s.now().UnixNano()
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		var header [headerSize]byte
		_, err = io.ReadFull(f, header[:])
		f.Close()
		if err != nil {
			continue
		}
		if expires := int64(binary.BigEndian.Uint64(header[:])); expires != 0 && now >= expires {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}
	return removed, nil
}
