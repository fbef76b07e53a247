package images

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/gridsync/internal/artwork"
)

// DefaultTimeout bounds a single fetch when Options.Timeout is zero.
const DefaultTimeout = 2 * time.Minute

// Options configures a Cache.
type Options struct {
	// Timeout bounds each fetch. A fetch still running when it expires moves
	// its slot to Failed with ErrTimeout.
	Timeout time.Duration
	Logger  *zap.Logger
	Now     func() time.Time
}

type slot struct {
	entry   Entry
	gen     uint64
	minSize int64
	// cancel aborts the slot's fetch while it is Downloading.
	cancel context.CancelFunc
}

// Cache tracks artwork slots and runs at most one fetch per Key.
type Cache struct {
	fetcher Fetcher
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// commitMu orders file replacement so renames never run under mu.
	commitMu sync.Mutex

	mu      sync.Mutex
	slots   map[Key]*slot
	gen     uint64
	changed chan struct{}
}

// New returns an empty cache that fetches through f.
func New(f Fetcher, opts Options) *Cache {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cache{
		fetcher: f,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		now:     opts.Now,
		ctx:     ctx,
		cancel:  cancel,
		slots:   map[Key]*slot{},
		changed: make(chan struct{}),
	}
}

// Request starts fetching url into key unless key already has an entry.
func (c *Cache) Request(key Key, url string, minSize int64) {
	c.mu.Lock()
	if _, ok := c.slots[key]; ok {
		c.mu.Unlock()
		return
	}
	s := c.insertLocked(key, Entry{State: Downloading}, minSize)
	ctx, cancel := context.WithTimeout(c.ctx, c.timeout)
	s.cancel = cancel
	gen := s.gen
	c.wg.Add(1)
	c.mu.Unlock()

	go c.fetch(ctx, cancel, key, gen, url, minSize)
}

// Ensure accepts an existing file of at least minSize bytes for key as
// Downloaded and otherwise calls Request. It reports whether a fetch started.
func (c *Cache) Ensure(key Key, url string, minSize int64) bool {
	if _, ok := c.Observe(key); ok {
		return false
	}
	if path, size, ok := onDisk(key, minSize); ok {
		c.mu.Lock()
		if _, exists := c.slots[key]; !exists {
			c.insertLocked(key, Entry{State: Downloaded, Path: path, Size: size}, minSize)
		}
		c.mu.Unlock()
		return false
	}
	if url == "" {
		return false
	}
	c.Request(key, url, minSize)
	return true
}

// Observe returns a snapshot of key's entry without blocking on fetches.
func (c *Cache) Observe(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok {
		return Entry{}, false
	}
	return s.entry, true
}

// Clear forgets key and cancels a fetch still running for it, so a later
// Request never overlaps the old download.
func (c *Cache) Clear(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	delete(c.slots, key)
	c.notifyLocked()
}

// Load decodes a Downloaded slot and moves it to Loaded, or to Failed when the
// file is missing, undersized or not an image.
func (c *Cache) Load(key Key) (Entry, error) {
	c.mu.Lock()
	s, ok := c.slots[key]
	if !ok || s.entry.State != Downloaded {
		c.mu.Unlock()
		return Entry{}, ErrNotDownloaded
	}
	gen, path, minSize := s.gen, s.entry.Path, s.minSize
	c.mu.Unlock()

	w, h, err := loadFile(path, minSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok = c.slots[key]
	if !ok || s.gen != gen {
		return Entry{}, ErrNotDownloaded
	}
	if err != nil {
		c.setLocked(s, Entry{State: Failed, Path: path, Err: err, Size: s.entry.Size, Undersized: s.entry.Undersized})
		return s.entry, err
	}
	c.setLocked(s, Entry{State: Loaded, Path: path, Size: s.entry.Size, Width: w, Height: h})
	return s.entry, nil
}

// Wait blocks until none of keys is Downloading or ctx is done.
func (c *Cache) Wait(ctx context.Context, keys ...Key) error {
	for {
		c.mu.Lock()
		changed := c.changed
		pending := false
		for _, k := range keys {
			if s, ok := c.slots[k]; ok && s.entry.State == Downloading {
				pending = true
				break
			}
		}
		c.mu.Unlock()
		if !pending {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// Close aborts running fetches and waits for their goroutines.
func (c *Cache) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *Cache) fetch(ctx context.Context, cancel context.CancelFunc, key Key, gen uint64, url string, minSize int64) {
	defer c.wg.Done()
	defer cancel()

	type result struct {
		payload Payload
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, err := c.fetcher.Fetch(ctx, url)
		done <- result{p, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.err = ErrTimeout
			}
			c.fail(key, gen, r.err)
			return
		}
		c.store(key, gen, url, minSize, r.payload)
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		c.fail(key, gen, err)
	}
}

func (c *Cache) fail(key Key, gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok || s.gen != gen {
		return
	}
	c.logger.Warn("image download failed", zap.String("key", string(key)), zap.Error(err))
	s.cancel = nil
	c.setLocked(s, Entry{State: Failed, Err: err})
}

func (c *Cache) store(key Key, gen uint64, url string, minSize int64, p Payload) {
	ext := artwork.ExtensionFor(p.ContentType, url)
	path := key.Path(ext)
	tmp, err := writeTemp(path, p.Data)
	if err != nil {
		c.fail(key, gen, err)
		return
	}

	c.commitMu.Lock()
	defer c.commitMu.Unlock()
	if !c.current(key, gen) {
		_ = os.Remove(tmp)
		return
	}
	removeSiblings(key, ext)
	renameErr := os.Rename(tmp, path)
	if renameErr != nil {
		_ = os.Remove(tmp)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	if !ok || s.gen != gen {
		return
	}
	s.cancel = nil
	if renameErr != nil {
		c.logger.Warn("image write failed", zap.String("path", path), zap.Error(renameErr))
		c.setLocked(s, Entry{State: Failed, Err: fmt.Errorf("replace %s: %w", path, renameErr)})
		return
	}
	size := int64(len(p.Data))
	e := Entry{State: Downloaded, Path: path, Size: size, Undersized: size < minSize}
	if e.Undersized {
		c.logger.Info("downloaded image below minimum size",
			zap.String("path", path), zap.Int64("size", size), zap.Int64("min_size", minSize))
	} else {
		c.logger.Debug("downloaded image", zap.String("path", path), zap.Int64("size", size))
	}
	c.setLocked(s, e)
}

// current reports whether gen is still the live fetch for key.
func (c *Cache) current(key Key, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[key]
	return ok && s.gen == gen
}

func (c *Cache) insertLocked(key Key, e Entry, minSize int64) *slot {
	c.gen++
	e.Since = c.now()
	s := &slot{entry: e, gen: c.gen, minSize: minSize}
	c.slots[key] = s
	c.notifyLocked()
	return s
}

func (c *Cache) setLocked(s *slot, e Entry) {
	e.Since = c.now()
	s.entry = e
	c.notifyLocked()
}

func (c *Cache) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func onDisk(key Key, minSize int64) (string, int64, bool) {
	for _, ext := range artwork.Extensions {
		path := key.Path(ext)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Size() >= minSize {
			return path, info.Size(), true
		}
	}
	return "", 0, false
}

func removeSiblings(key Key, keep string) {
	for _, ext := range artwork.Extensions {
		if ext != keep {
			_ = os.Remove(key.Path(ext))
		}
	}
}

func writeTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create grid dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return name, nil
}

func loadFile(path string, minSize int64) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) < minSize {
		return 0, 0, ErrUndersized
	}
	return decodeSize(data)
}
