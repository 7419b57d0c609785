package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/e7canasta/rawplay/modules/clip"
)

var (
	ErrShortFrame = errors.New("render: frame buffer smaller than layout")
	ErrBadLayout  = errors.New("render: invalid layout")
)

// Backend receives frame pixels and per-frame parameters.
type Backend interface {
	// UploadTexture copies the size.X×size.Y block starting at data[offset]
	// into the texture at origin.
	UploadTexture(origin, size image.Point, data []byte, offset int) error

	// SetUniform sets a named shader parameter.
	SetUniform(name string, v any) error
}

// Presenter is implemented by backends that need to be told a frame is
// complete (all tiles and uniforms delivered).
type Presenter interface {
	Present(frame uint32) error
}

// Layout is the geometry of a decoded frame buffer.
type Layout struct {
	Width, Height int // padded dimensions

	Tiled                 bool
	TileWidth, TileHeight int

	DecodedBitDepth int
}

// LayoutOf returns the decoded buffer layout of a clip.
func LayoutOf(md *clip.Metadata) Layout {
	l := Layout{
		Width:           md.PaddedWidth,
		Height:          md.PaddedHeight,
		DecodedBitDepth: md.DecodedBitDepth,
	}
	if md.Tiled {
		l.Tiled = true
		l.TileWidth, l.TileHeight = md.TileWidth, md.TileHeight
	}
	return l
}

// FrameSize is the number of bytes a frame buffer needs.
func (l Layout) FrameSize() int {
	return l.Width * l.Height * l.DecodedBitDepth / 8
}

// TileSize is the number of bytes of one tile (0 for linear layouts).
func (l Layout) TileSize() int {
	if !l.Tiled {
		return 0
	}
	return l.TileWidth * l.TileHeight * l.DecodedBitDepth / 8
}

// Validate checks the dimensions are usable and tiles cover the image
// exactly.
func (l Layout) Validate() error {
	if l.Width <= 0 || l.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrBadLayout, l.Width, l.Height)
	}
	if l.DecodedBitDepth != 8 && l.DecodedBitDepth != 16 {
		return fmt.Errorf("%w: decoded bit depth %d", ErrBadLayout, l.DecodedBitDepth)
	}
	if l.Tiled {
		if l.TileWidth <= 0 || l.TileHeight <= 0 {
			return fmt.Errorf("%w: tile %dx%d", ErrBadLayout, l.TileWidth, l.TileHeight)
		}
		if l.Width%l.TileWidth != 0 || l.Height%l.TileHeight != 0 {
			return fmt.Errorf("%w: %dx%d not a multiple of tile %dx%d", ErrBadLayout, l.Width, l.Height, l.TileWidth, l.TileHeight)
		}
	}
	return nil
}

// UploadFrame sends data to b according to l.
func UploadFrame(b Backend, data []byte, l Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if len(data) < l.FrameSize() {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortFrame, len(data), l.FrameSize())
	}

	if !l.Tiled {
		if err := b.UploadTexture(image.Point{}, image.Pt(l.Width, l.Height), data, 0); err != nil {
			return fmt.Errorf("render: upload: %w", err)
		}
		return nil
	}

	tile := image.Pt(l.TileWidth, l.TileHeight)
	step := l.TileSize()
	offset := 0
	for y := 0; y < l.Height; y += l.TileHeight {
		for x := 0; x < l.Width; x += l.TileWidth {
			if err := b.UploadTexture(image.Pt(x, y), tile, data, offset); err != nil {
				return fmt.Errorf("render: upload tile at %d,%d: %w", x, y, err)
			}
			offset += step
		}
	}
	return nil
}
