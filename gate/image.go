package gate

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/eak1mov/go-vectiles/atlas"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrNotLoaded = errors.New("vectiles: image not loaded")

// BaseImage is an image shared by all textures of an atlas or font.
// It is resolved once; afterwards it is immutable and safe for concurrent use.
type BaseImage struct {
	name string

	mu        sync.Mutex
	loaded    bool
	img       image.Image
	err       error
	listeners []func()
}

func NewBaseImage(name string) *BaseImage {
	return &BaseImage{name: name}
}

func (b *BaseImage) Name() string { return b.name }

func (b *BaseImage) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

func (b *BaseImage) OnLoaded(fn func()) {
	b.mu.Lock()
	if !b.loaded {
		b.listeners = append(b.listeners, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	fn()
}

// Resolve completes decoding with either an image or an error and notifies
// subscribers. Only the first call has an effect.
func (b *BaseImage) Resolve(img image.Image, err error) {
	b.mu.Lock()
	if b.loaded {
		b.mu.Unlock()
		return
	}
	b.loaded = true
	b.img = img
	b.err = err
	listeners := b.listeners
	b.listeners = nil
	b.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Image returns the decoded image, or nil if decoding failed or is in flight.
func (b *BaseImage) Image() image.Image {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.img
}

// Err returns the decode error. It is ErrNotLoaded while decoding is in flight.
func (b *BaseImage) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return ErrNotLoaded
	}
	return b.err
}

// SubImage crops the texture rectangle out of the base image.
func (b *BaseImage) SubImage(r atlas.Rect) (image.Image, error) {
	if err := b.Err(); err != nil {
		return nil, err
	}
	img := b.Image()
	if !r.Image().In(img.Bounds()) {
		return nil, fmt.Errorf("gate: rect %v outside image %q bounds %v", r, b.name, img.Bounds())
	}
	return imaging.Crop(img, r.Image()), nil
}

// DecodeAsync decodes an image in the background. The returned handle is
// resolved when decoding finishes, fails, or ctx is cancelled.
func DecodeAsync(ctx context.Context, name string, open func(context.Context) (io.ReadCloser, error)) *BaseImage {
	b := NewBaseImage(name)
	done := make(chan struct{})

	go func() {
		defer close(done)
		img, err := decode(ctx, open)
		if err != nil {
			err = fmt.Errorf("gate: image %q: %w", name, err)
		}
		b.Resolve(img, err)
	}()

	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			b.Resolve(nil, fmt.Errorf("gate: image %q: %w", name, ctx.Err()))
		}
	}()

	return b
}

func decode(ctx context.Context, open func(context.Context) (io.ReadCloser, error)) (image.Image, error) {
	r, err := open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, _, err := image.Decode(r)
	return img, err
}
