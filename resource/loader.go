// Package resource loads texture atlases and bitmap fonts together with their
// shared base images, and hands them out only once the image is decoded.
package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/eak1mov/go-vectiles/atlas"
	"github.com/eak1mov/go-vectiles/font"
	"github.com/eak1mov/go-vectiles/gate"
)

const (
	AtlasExt = ".atl"
	FontsExt = ".info"
)

// Textures is a parsed atlas index and its decoded base image.
type Textures struct {
	Atlas atlas.Atlas
	Image *gate.BaseImage
}

// Fonts is a parsed font table and its decoded base image.
type Fonts struct {
	Table font.Table
	Image *gate.BaseImage
}

type Loader struct {
	fetcher  Fetcher
	imageExt string
	logger   *slog.Logger
}

type Option func(*Loader)

func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithImageExt sets the extension of base image resources (".png" by default).
func WithImageExt(ext string) Option {
	return func(l *Loader) { l.imageExt = ext }
}

func NewLoader(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher:  fetcher,
		imageExt: ".png",
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) decodeImage(ctx context.Context, name string) *gate.BaseImage {
	imageName := name + l.imageExt
	return gate.DecodeAsync(ctx, imageName, func(ctx context.Context) (io.ReadCloser, error) {
		data, err := l.fetcher.Fetch(ctx, imageName)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// LoadTextureAtlas fetches and parses name.atl while the base image decodes,
// then calls onReady once the image has finished decoding. Fetch and parse
// errors are returned and onReady is never called.
func (l *Loader) LoadTextureAtlas(ctx context.Context, name string, onReady func(*Textures)) error {
	img := l.decodeImage(ctx, name)

	data, err := l.fetcher.Fetch(ctx, name+AtlasExt)
	if err != nil {
		return fmt.Errorf("resource: %s%s: %w", name, AtlasExt, err)
	}
	rects, err := atlas.Parse(data)
	if err != nil {
		return fmt.Errorf("resource: %s%s: %w", name, AtlasExt, err)
	}
	l.logger.Debug("vectiles: atlas parsed", "name", name, "textures", len(rects))

	gate.Register(img, &Textures{Atlas: rects, Image: img}, onReady)
	return nil
}

// LoadFonts is LoadTextureAtlas for name.info font metrics.
func (l *Loader) LoadFonts(ctx context.Context, name string, onReady func(*Fonts)) error {
	img := l.decodeImage(ctx, name)

	data, err := l.fetcher.Fetch(ctx, name+FontsExt)
	if err != nil {
		return fmt.Errorf("resource: %s%s: %w", name, FontsExt, err)
	}
	fonts, err := font.Parse(data)
	if err != nil {
		return fmt.Errorf("resource: %s%s: %w", name, FontsExt, err)
	}
	l.logger.Debug("vectiles: fonts parsed", "name", name, "fonts", len(fonts))

	gate.Register(img, &Fonts{Table: fonts, Image: img}, onReady)
	return nil
}

// Resources holds everything a decoder needs to resolve text and symbols.
type Resources struct {
	Fonts    *Fonts
	Textures *Textures
}

// Load loads fonts and textures and waits until both base images are decoded.
// An empty name skips that resource.
func (l *Loader) Load(ctx context.Context, fontsName, atlasName string) (*Resources, error) {
	res := &Resources{}
	fontsReady := make(chan *Fonts, 1)
	texturesReady := make(chan *Textures, 1)

	if fontsName != "" {
		if err := l.LoadFonts(ctx, fontsName, func(f *Fonts) { fontsReady <- f }); err != nil {
			return nil, err
		}
	} else {
		fontsReady <- nil
	}

	if atlasName != "" {
		if err := l.LoadTextureAtlas(ctx, atlasName, func(t *Textures) { texturesReady <- t }); err != nil {
			return nil, err
		}
	} else {
		texturesReady <- nil
	}

	for range 2 {
		select {
		case res.Fonts = <-fontsReady:
			if res.Fonts != nil {
				if err := res.Fonts.Image.Err(); err != nil {
					return nil, err
				}
			}
		case res.Textures = <-texturesReady:
			if res.Textures != nil {
				if err := res.Textures.Image.Err(); err != nil {
					return nil, err
				}
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.logger.Debug("vectiles: resources ready", "fonts", fontsName, "atlas", atlasName)
	return res, nil
}

// FontTable returns the loaded font table, or nil.
func (r *Resources) FontTable() font.Table {
	if r.Fonts == nil {
		return nil
	}
	return r.Fonts.Table
}

// Atlas returns the loaded texture atlas, or nil.
func (r *Resources) Atlas() atlas.Atlas {
	if r.Textures == nil {
		return nil
	}
	return r.Textures.Atlas
}
