package contour

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// ImageSource loads the raster behind an asset id.
type ImageSource interface {
	Image(assetID string) (image.Image, error)
}

// Cache memoizes contours by key. Each key is computed at most once, even
// when requested from many goroutines at the same time.
type Cache struct {
	src    ImageSource
	params Params

	mu      sync.Mutex
	results map[model.ContourKey]model.Contour
	group   singleflight.Group

	computed atomic.Int64
}

// NewCache returns an empty cache reading rasters from src.
func NewCache(src ImageSource, params Params) *Cache {
	return &Cache{
		src:     src,
		params:  params,
		results: make(map[model.ContourKey]model.Contour),
	}
}

// Computed returns how many contours were actually extracted.
func (c *Cache) Computed() int64 {
	return c.computed.Load()
}

// Len returns the number of cached contours.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.results)
}

func (c *Cache) lookup(k model.ContourKey) (model.Contour, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.results[k]
	return v, ok
}

func flightKey(k model.ContourKey) string {
	return fmt.Sprintf("%s|%g|%g|%g|%t", k.AssetID, k.WidthMM, k.HeightMM, k.OffsetMM, k.Rotated)
}

// Get returns the contour for k, extracting it on first use. Failed loads
// are not cached.
func (c *Cache) Get(k model.ContourKey) (model.Contour, error) {
	if v, ok := c.lookup(k); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(flightKey(k), func() (any, error) {
		// A previous flight may have finished between lookup and Do.
		if v, ok := c.lookup(k); ok {
			return v, nil
		}
		img, err := c.src.Image(k.AssetID)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", k.AssetID, err)
		}
		contour := ExtractWith(img, RequestFor(k), c.params)
		c.computed.Add(1)

		c.mu.Lock()
		c.results[k] = contour
		c.mu.Unlock()
		return contour, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(model.Contour), nil
}

// ExtractAll fills the cache for every key using up to workers goroutines
// (0 means one per CPU) and returns the contours by key. The context is
// checked between extractions; a running extraction is never interrupted.
func ExtractAll(ctx context.Context, c *Cache, keys []model.ContourKey, workers int) (map[model.ContourKey]model.Contour, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	out := make(map[model.ContourKey]model.Contour, len(keys))
	seen := make(map[model.ContourKey]bool, len(keys))

	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			contour, err := c.Get(k)
			if err != nil {
				return err
			}
			mu.Lock()
			out[k] = contour
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// KeysForJob lists the distinct contour keys needed to cut every placement
// of a job, in placement order.
func KeysForJob(job model.Job, offsetMM float64) []model.ContourKey {
	seen := make(map[model.ContourKey]bool)
	var keys []model.ContourKey
	for _, p := range job.Placements {
		k := model.ContourKeyFor(p, offsetMM)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}
