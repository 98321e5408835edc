package tilecache

import (
	"context"
	"image"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jamesrr39/ownmap-viewport/tilegrid"
	"github.com/jamesrr39/ownmap-viewport/tilerenderer"
	"github.com/jamesrr39/semaphore"
	"golang.org/x/sync/singleflight"
)

type TileRenderer interface {
	RenderTile(ctx context.Context, job tilerenderer.RenderJob) (image.Image, errorsx.Error)
}

// TileCache holds a record per requested tile, rendering the tile the first time it is resolved.
// Records are kept until they are evicted. Safe for concurrent use.
type TileCache struct {
	logger     *logpkg.Logger
	renderer   TileRenderer
	tileSize   int
	parameters tilerenderer.Parameters
	debug      tilerenderer.DebugSettings

	mu        sync.RWMutex
	records   map[tilegrid.TileKey]*tilegrid.TileRecord
	keys      []tilegrid.TileKey
	onLoad    func(key tilegrid.TileKey)
	loadGroup singleflight.Group
}

func NewTileCache(logger *logpkg.Logger, renderer TileRenderer, tileSize int, parameters tilerenderer.Parameters, debug tilerenderer.DebugSettings) *TileCache {
	return &TileCache{
		logger:     logger,
		renderer:   renderer,
		tileSize:   tileSize,
		parameters: parameters,
		debug:      debug,
		records:    make(map[tilegrid.TileKey]*tilegrid.TileRecord),
	}
}

// SetOnLoad sets the function called each time a tile image is loaded into the cache.
// It is called on the goroutine that resolved the tile, without any cache lock held.
func (c *TileCache) SetOnLoad(onLoad func(key tilegrid.TileKey)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onLoad = onLoad
}

func (c *TileCache) TileSize() int {
	return c.tileSize
}

// Get returns the record for the key, or nil if the key has never been resolved
func (c *TileCache) Get(key tilegrid.TileKey) *tilegrid.TileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.records[key]
}

// Records returns every record, in the order the keys were first resolved
func (c *TileCache) Records() []*tilegrid.TileRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := make([]*tilegrid.TileRecord, 0, len(c.keys))
	for _, key := range c.keys {
		records = append(records, c.records[key])
	}
	return records
}

func (c *TileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.keys)
}

// Resolve returns the record for the key, rendering the tile if it has no image yet.
// A loaded record is returned as it is, without rendering again.
// A render failure is logged and leaves the record without an image; it is not returned as an error,
// and the next Resolve of the key tries again.
func (c *TileCache) Resolve(ctx context.Context, key tilegrid.TileKey) (*tilegrid.TileRecord, errorsx.Error) {
	record := c.Get(key)
	if record != nil && record.HasImage() {
		return record, nil
	}

	val, err, _ := c.loadGroup.Do(key.String(), func() (interface{}, error) {
		record, err := c.getOrCreateRecord(key)
		if err != nil {
			return nil, err
		}

		if record.HasImage() {
			// loaded while this call was waiting
			return record, nil
		}

		c.load(ctx, record)

		return record, nil
	})
	if err != nil {
		// shared between the callers waiting on the key, so not wrapped here
		return nil, err.(errorsx.Error)
	}

	return val.(*tilegrid.TileRecord), nil
}

func (c *TileCache) getOrCreateRecord(key tilegrid.TileKey) (*tilegrid.TileRecord, errorsx.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record, ok := c.records[key]
	if ok {
		return record, nil
	}

	record, err := tilegrid.NewTileRecord(key, c.tileSize)
	if err != nil {
		return nil, err
	}

	c.records[key] = record
	c.keys = append(c.keys, key)

	return record, nil
}

func (c *TileCache) load(ctx context.Context, record *tilegrid.TileRecord) {
	job := tilerenderer.NewRenderJob(record.Key, c.parameters, c.debug)

	img, err := c.renderer.RenderTile(ctx, job)
	if err != nil {
		c.logger.Warn("failed to render tile %s. Error: %s", record.Key, err)
		return
	}

	if img == nil {
		c.logger.Warn("renderer returned no image for tile %s", record.Key)
		return
	}

	err = record.SetImage(img)
	if err != nil {
		c.logger.Warn("failed to set image for tile %s. Error: %s", record.Key, err)
		return
	}

	c.logger.Debug("loaded tile %s", record.Key)

	c.mu.RLock()
	onLoad := c.onLoad
	c.mu.RUnlock()

	if onLoad != nil {
		onLoad(record.Key)
	}
}

// Evict removes the records keep returns false for, returning the amount removed.
// An evicted tile is rendered again if it is resolved again.
func (c *TileCache) Evict(keep func(key tilegrid.TileKey) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keptKeys := c.keys[:0]
	for _, key := range c.keys {
		if keep(key) {
			keptKeys = append(keptKeys, key)
			continue
		}

		delete(c.records, key)
	}

	evicted := len(c.keys) - len(keptKeys)
	c.keys = keptKeys

	return evicted
}

// ResolveAll resolves the keys, returning the records in the same order as the keys.
// With workers <= 1 the keys are resolved one after another, otherwise up to workers keys are resolved at once.
func (c *TileCache) ResolveAll(ctx context.Context, keys []tilegrid.TileKey, workers uint) ([]*tilegrid.TileRecord, errorsx.Error) {
	records := make([]*tilegrid.TileRecord, len(keys))

	if workers <= 1 {
		for i, key := range keys {
			if ctx.Err() != nil {
				return nil, errorsx.Wrap(ctx.Err())
			}

			record, err := c.Resolve(ctx, key)
			if err != nil {
				return nil, errorsx.Wrap(err, "tile", key.String())
			}
			records[i] = record
		}
		return records, nil
	}

	var errMu sync.Mutex
	var firstErr errorsx.Error

	sema := semaphore.NewSemaphore(workers)
	for i, key := range keys {
		sema.Add()
		go func(i int, key tilegrid.TileKey) {
			defer sema.Done()

			record, err := c.Resolve(ctx, key)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = errorsx.Wrap(err, "tile", key.String())
				}
				errMu.Unlock()
				return
			}
			records[i] = record
		}(i, key)
	}
	sema.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	if ctx.Err() != nil {
		return nil, errorsx.Wrap(ctx.Err())
	}

	return records, nil
}
