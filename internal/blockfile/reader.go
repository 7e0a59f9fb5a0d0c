// Package blockfile reads raw block records from the node's blk*.dat files.
package blockfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/goodnatureofminers/blockinsight7000-blockparser/internal/model"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

const (
	frameSize = 8

	defaultMaxOpenFiles = 64
	xorKeyFile          = "xor.dat"
)

// FileName is the name of the block file with the given number.
func FileName(file uint32) string {
	return fmt.Sprintf("blk%05d.dat", file)
}

type Option func(*Reader)

// WithMaxOpenFiles bounds the number of cached file handles.
func WithMaxOpenFiles(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxOpen = n
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// Reader resolves locators to block payloads. It is safe for concurrent use.
type Reader struct {
	dir     string
	magic   [4]byte
	xorKey  []byte
	maxOpen int
	logger  *zap.Logger

	mu      sync.Mutex
	handles *lru.Cache[uint32, *handle]
	closed  bool
}

type handle struct {
	f       *os.File
	size    int64
	refs    int
	evicted bool
}

func NewReader(dir string, magic [4]byte, opts ...Option) (*Reader, error) {
	r := &Reader{
		dir:     dir,
		magic:   magic,
		maxOpen: defaultMaxOpenFiles,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	cache, err := lru.NewWithEvict[uint32, *handle](r.maxOpen, func(_ uint32, h *handle) {
		h.evicted = true
		if h.refs == 0 {
			_ = h.f.Close()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("create handle cache: %w", err)
	}
	r.handles = cache

	key, err := loadXORKey(filepath.Join(dir, xorKeyFile))
	if err != nil {
		return nil, err
	}
	r.xorKey = key
	if key != nil {
		r.logger.Info("block files are obfuscated", zap.Int("key_len", len(key)))
	}
	return r, nil
}

func loadXORKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	for _, b := range key {
		if b != 0 {
			return key, nil
		}
	}
	return nil, nil
}

// Read returns the payload addressed by loc. The framing is checked
// against the configured magic and the file size.
func (r *Reader) Read(loc model.Locator) ([]byte, error) {
	offset := int64(loc.Offset)
	if offset < frameSize {
		return nil, &MagicMismatchError{File: loc.File, Offset: offset, Want: r.magic}
	}

	h, err := r.acquire(loc.File)
	if err != nil {
		return nil, err
	}
	defer r.release(h)

	start := offset - frameSize
	if h.size < offset {
		return nil, &TruncatedFileError{File: loc.File, Offset: start, Want: frameSize, Have: h.size}
	}

	var frame [frameSize]byte
	if err := r.readAt(h, frame[:], start); err != nil {
		return nil, r.readErr(loc.File, start, frameSize, h.size, err)
	}

	var got [4]byte
	copy(got[:], frame[:4])
	if got != r.magic {
		return nil, &MagicMismatchError{File: loc.File, Offset: start, Want: r.magic, Got: got}
	}

	length := int64(binary.LittleEndian.Uint32(frame[4:]))
	if offset+length > h.size {
		return nil, &TruncatedFileError{File: loc.File, Offset: offset, Want: length, Have: h.size}
	}

	payload := make([]byte, length)
	if err := r.readAt(h, payload, offset); err != nil {
		return nil, r.readErr(loc.File, offset, length, h.size, err)
	}
	return payload, nil
}

func (r *Reader) readAt(h *handle, buf []byte, off int64) error {
	if _, err := h.f.ReadAt(buf, off); err != nil {
		return err
	}
	if r.xorKey != nil {
		applyXOR(buf, r.xorKey, off)
	}
	return nil
}

func (r *Reader) readErr(file uint32, off, want, size int64, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &TruncatedFileError{File: file, Offset: off, Want: want, Have: size}
	}
	return fmt.Errorf("read %s at %d: %w", FileName(file), off, err)
}

func applyXOR(buf, key []byte, off int64) {
	n := int64(len(key))
	for i := range buf {
		buf[i] ^= key[(off+int64(i))%n]
	}
}

func (r *Reader) acquire(file uint32) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if h, ok := r.handles.Get(file); ok {
		h.refs++
		return h, nil
	}

	path := filepath.Join(r.dir, FileName(file))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat block file: %w", err)
	}

	h := &handle{f: f, size: info.Size(), refs: 1}
	r.handles.Add(file, h)
	r.logger.Debug("opened block file", zap.String("path", path), zap.Int64("size", h.size))
	return h, nil
}

func (r *Reader) release(h *handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h.refs--
	if h.refs == 0 && h.evicted {
		_ = h.f.Close()
	}
}

// Close releases all cached handles. Handles still in use are closed
// when their read returns.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.handles.Purge()
	return nil
}
