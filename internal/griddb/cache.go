package griddb

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNoSearcher is returned for a cache miss when no search client is
// configured.
var ErrNoSearcher = errors.New("no steamgriddb search client configured")

// Resolution is the SteamGridDB game a shortcut id maps to. Found is false
// for an explicit "no match" result.
type Resolution struct {
	ID     uint32
	Name   string
	GridID int
	Found  bool
}

type record struct {
	ID         uint32 `json:"id"`
	Name       string `json:"name"`
	ResolvedID int    `json:"resolved_id"`
	Found      *bool  `json:"found,omitempty"`
	Manual     bool   `json:"manual,omitempty"`
}

func (r record) entry() entry {
	found := r.ResolvedID != 0
	if r.Found != nil {
		found = *r.Found
	}
	return entry{
		res:    Resolution{ID: r.ID, Name: r.Name, GridID: r.ResolvedID, Found: found},
		manual: r.Manual,
	}
}

func recordOf(e entry) record {
	found := e.res.Found
	return record{ID: e.res.ID, Name: e.res.Name, ResolvedID: e.res.GridID, Found: &found, Manual: e.manual}
}

// entry is one cached resolution. gen changes on every write so a search
// can tell whether the id was touched while it ran.
type entry struct {
	res    Resolution
	manual bool
	gen    uint64
}

// Cache memoizes shortcut id → SteamGridDB id resolutions in a JSON file.
// Other processes may write the same file; their records are merged in
// before every write and when the file changes under a lookup.
type Cache struct {
	path     string
	searcher Searcher
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[uint32]entry
	gen     uint64
	// dirty holds ids changed in memory and not yet written.
	dirty map[uint32]struct{}
	// stamp identifies the file version last merged.
	stamp fileStamp

	writeMu sync.Mutex
	group   singleflight.Group
}

type fileStamp struct {
	mod  time.Time
	size int64
}

// OpenCache loads the cache at path. A missing or unreadable file gives an
// empty cache. searcher may be nil, in which case only cached ids resolve.
func OpenCache(path string, searcher Searcher, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		path:     path,
		searcher: searcher,
		logger:   logger,
		entries:  map[uint32]entry{},
		dirty:    map[uint32]struct{}{},
	}
	records, stamp, err := c.readFile()
	if err != nil {
		logger.Warn("grid id cache unreadable, starting empty", zap.String("path", path), zap.Error(err))
		return c
	}
	c.mu.Lock()
	c.mergeLocked(records, stamp)
	c.mu.Unlock()
	return c
}

// Lookup returns the cached resolution for id without any I/O.
func (c *Cache) Lookup(id uint32) (Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e.res, ok
}

// Resolve returns the cached resolution for id, searching by name on a miss.
// Concurrent misses for the same id share one search. Search errors are
// returned and not cached.
func (c *Cache) Resolve(ctx context.Context, id uint32, name string) (Resolution, error) {
	c.reload()
	if res, ok := c.Lookup(id); ok {
		return res, nil
	}
	return c.search(ctx, id, name, false)
}

// Research discards any cached result for id and searches again. A manual
// resolution recorded while the search runs is kept.
func (c *Cache) Research(ctx context.Context, id uint32, name string) (Resolution, error) {
	return c.search(ctx, id, name, true)
}

// Set records a manual resolution and persists it. Manual resolutions win
// over searches that were already in flight.
func (c *Cache) Set(id uint32, name string, gridID int) error {
	c.mu.Lock()
	c.storeLocked(Resolution{ID: id, Name: name, GridID: gridID, Found: gridID > 0}, true)
	c.mu.Unlock()
	return c.persist()
}

// Entries returns every cached resolution ordered by id.
func (c *Cache) Entries() []Resolution {
	c.mu.Lock()
	out := make([]Resolution, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.res)
	}
	c.mu.Unlock()
	slices.SortFunc(out, func(a, b Resolution) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (c *Cache) search(ctx context.Context, id uint32, name string, force bool) (Resolution, error) {
	if c.searcher == nil {
		return Resolution{}, ErrNoSearcher
	}
	key := strconv.FormatUint(uint64(id), 10)
	if force {
		key = "research:" + key
	}
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.Lock()
		before, cached := c.entries[id]
		c.mu.Unlock()
		if cached && !force {
			return before.res, nil
		}

		results, err := c.searcher.Search(ctx, name)
		if err != nil {
			return Resolution{}, fmt.Errorf("search %q: %w", name, err)
		}
		res := Resolution{ID: id, Name: name}
		if len(results) > 0 {
			res.GridID = results[0].ID
			res.Found = true
		}

		c.mu.Lock()
		current, ok := c.entries[id]
		if ok != cached || current.gen != before.gen {
			c.mu.Unlock()
			c.logger.Debug("grid id changed during search, keeping it",
				zap.Uint32("app_id", id), zap.Int("grid_id", current.res.GridID))
			return current.res, nil
		}
		c.storeLocked(res, false)
		c.mu.Unlock()

		if err := c.persist(); err != nil {
			c.logger.Warn("grid id cache write failed", zap.String("path", c.path), zap.Error(err))
		}
		c.logger.Debug("resolved grid id",
			zap.Uint32("app_id", id), zap.String("name", name),
			zap.Int("grid_id", res.GridID), zap.Bool("found", res.Found))
		return res, nil
	})
	select {
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Resolution{}, r.Err
		}
		return r.Val.(Resolution), nil
	}
}

func (c *Cache) storeLocked(res Resolution, manual bool) {
	c.gen++
	c.entries[res.ID] = entry{res: res, manual: manual, gen: c.gen}
	c.dirty[res.ID] = struct{}{}
}

// mergeLocked adopts file records for every id this process has not changed
// since its last write.
func (c *Cache) mergeLocked(records []record, stamp fileStamp) {
	for _, r := range records {
		if _, ok := c.dirty[r.ID]; ok {
			continue
		}
		e := r.entry()
		if cur, ok := c.entries[r.ID]; ok && cur.res == e.res && cur.manual == e.manual {
			continue
		}
		c.gen++
		e.gen = c.gen
		c.entries[r.ID] = e
	}
	c.stamp = stamp
}

// reload merges the file when another writer replaced it.
func (c *Cache) reload() {
	if c.path == "" {
		return
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return
	}
	c.mu.Lock()
	same := c.stamp == fileStamp{mod: info.ModTime(), size: info.Size()}
	c.mu.Unlock()
	if same {
		return
	}
	records, stamp, err := c.readFile()
	if err != nil {
		c.logger.Warn("grid id cache unreadable, keeping memory", zap.String("path", c.path), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.mergeLocked(records, stamp)
	c.mu.Unlock()
}

// readFile returns the records on disk. A missing file has no records.
func (c *Cache) readFile() ([]record, fileStamp, error) {
	if c.path == "" {
		return nil, fileStamp{}, nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fileStamp{}, nil
	}
	if err != nil {
		return nil, fileStamp{}, err
	}
	var stamp fileStamp
	if info, err := os.Stat(c.path); err == nil {
		stamp = fileStamp{mod: info.ModTime(), size: info.Size()}
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, stamp, fmt.Errorf("decode grid id cache: %w", err)
	}
	return records, stamp, nil
}

// persist merges records written by other processes, then rewrites the whole
// file through a temp file and rename.
func (c *Cache) persist() error {
	if c.path == "" {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	onDisk, stamp, err := c.readFile()
	if err != nil {
		c.logger.Warn("grid id cache unreadable, overwriting it", zap.String("path", c.path), zap.Error(err))
	}

	c.mu.Lock()
	c.mergeLocked(onDisk, stamp)
	records := make([]record, 0, len(c.entries))
	for _, e := range c.entries {
		records = append(records, recordOf(e))
	}
	written := c.dirty
	c.dirty = map[uint32]struct{}{}
	c.mu.Unlock()
	slices.SortFunc(records, func(a, b record) int { return cmp.Compare(a.ID, b.ID) })

	if err := c.writeFile(records); err != nil {
		c.mu.Lock()
		for id := range written {
			c.dirty[id] = struct{}{}
		}
		c.mu.Unlock()
		return err
	}

	if info, err := os.Stat(c.path); err == nil {
		c.mu.Lock()
		c.stamp = fileStamp{mod: info.ModTime(), size: info.Size()}
		c.mu.Unlock()
	}
	return nil
}

func (c *Cache) writeFile(records []record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode grid id cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".grid_cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace grid id cache: %w", err)
	}
	return nil
}
