// Package catalog lists and loads the PNG stickers in a folder.
package catalog

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/piwi3910/StickerImposer/internal/model"
)

// FS is a catalog of *.png files in one directory. The asset id is the file
// name without extension. Decoded images are kept in memory for reuse.
type FS struct {
	dir string

	mu     sync.Mutex
	byID   map[string]model.AssetInfo
	images map[string]image.Image
}

// Open scans dir and returns its catalog.
func Open(dir string) (*FS, error) {
	c := &FS{dir: dir, images: make(map[string]image.Image)}
	assets, err := List(dir)
	if err != nil {
		return nil, err
	}
	c.byID = make(map[string]model.AssetInfo, len(assets))
	for _, a := range assets {
		c.byID[a.ID] = a
	}
	return c, nil
}

// Dir returns the scanned directory.
func (c *FS) Dir() string {
	return c.dir
}

// Assets returns every asset sorted by id.
func (c *FS) Assets() []model.AssetInfo {
	out := make([]model.AssetInfo, 0, len(c.byID))
	for _, a := range c.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Path returns the file path of an asset.
func (c *FS) Path(id string) (string, bool) {
	a, ok := c.byID[id]
	return a.Path, ok
}

// Image decodes an asset, caching the result.
func (c *FS) Image(id string) (image.Image, error) {
	c.mu.Lock()
	img, ok := c.images[id]
	c.mu.Unlock()
	if ok {
		return img, nil
	}

	a, ok := c.byID[id]
	if !ok {
		return nil, model.NewError(model.ErrMissingAsset, "asset %s is not in %s", id, c.dir)
	}
	img, err := imaging.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", a.Path, err)
	}

	c.mu.Lock()
	c.images[id] = img
	c.mu.Unlock()
	return img, nil
}

// List reads the dimensions of every PNG in dir (case-insensitive
// extension, no recursion) and returns them sorted by id.
func List(dir string) ([]model.AssetInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset folder: %w", err)
	}

	var assets []model.AssetInfo
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		w, h, err := pngSize(path)
		if err != nil {
			return nil, err
		}
		assets = append(assets, model.AssetInfo{
			ID:       strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			WidthPx:  w,
			HeightPx: h,
			Path:     path,
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID < assets[j].ID })
	return assets, nil
}

// pngSize reads only the image header.
func pngSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if format != "png" {
		return 0, 0, fmt.Errorf("%s is %s, not png", path, format)
	}
	return cfg.Width, cfg.Height, nil
}
