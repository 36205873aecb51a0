package ownmaprenderer

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"sync"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/goutil/gofs"
)

// imageCache loads the images stylesheets refer to, relative to the stylesheet's directory, once each
type imageCache struct {
	fs     gofs.Fs
	mu     sync.Mutex
	images map[string]image.Image
}

func newImageCache(fs gofs.Fs) *imageCache {
	return &imageCache{
		fs:     fs,
		images: make(map[string]image.Image),
	}
}

func (ic *imageCache) Get(baseDir, path string) (image.Image, errorsx.Error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	ic.mu.Lock()
	defer ic.mu.Unlock()

	img, ok := ic.images[path]
	if ok {
		return img, nil
	}

	data, err := ic.fs.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errorsx.Wrap(err, "path", path)
	}

	ic.images[path] = img
	return img, nil
}

// tileImage repeats the pattern over the whole of bounds
func tileImage(bounds image.Rectangle, pattern image.Image) *image.RGBA {
	tiled := image.NewRGBA(bounds)

	patternBounds := pattern.Bounds()
	if patternBounds.Empty() {
		return tiled
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y += patternBounds.Dy() {
		for x := bounds.Min.X; x < bounds.Max.X; x += patternBounds.Dx() {
			target := image.Rect(x, y, x+patternBounds.Dx(), y+patternBounds.Dy())
			draw.Draw(tiled, target, pattern, patternBounds.Min, draw.Src)
		}
	}

	return tiled
}
