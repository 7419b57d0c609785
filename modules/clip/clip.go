package clip

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/e7canasta/rawplay/modules/colorpipeline"
)

// Essence is the kind of media a clip holds.
type Essence int

const (
	EssenceUnknown Essence = iota
	// EssenceSequence is a folder of per-frame DNG files (CinemaDNG)
	EssenceSequence
	// EssenceVideo is a single multi-frame file (Blackmagic RAW)
	EssenceVideo
)

func (e Essence) String() string {
	switch e {
	case EssenceSequence:
		return "sequence"
	case EssenceVideo:
		return "video"
	default:
		return "unknown"
	}
}

// RawParameters are the user adjustments stored with a clip.
type RawParameters = colorpipeline.RawParameters

// DecodeFunc decodes frame n into dst, which holds Metadata.ImageSize()
// bytes. scratch may be used as a read buffer and may be nil.
type DecodeFunc func(ctx context.Context, n uint32, dst, scratch []byte) error

// format is the per-essence half of a Clip.
type format interface {
	essence() Essence
	validate() error
	readMetadata() (*Metadata, error)
	framePath(n uint32) (string, error)
	frameNumber(path string) (uint32, error)
	sequencingField() (SequencingField, bool)
	siblings() ([]string, error)
	decoder(md *Metadata, codec Codec) DecodeFunc
}

// Clip is a RAW clip on disk. It is safe for concurrent use.
type Clip struct {
	path   string
	format format

	mu        sync.RWMutex
	valid     bool
	metadata  *Metadata
	params    RawParameters
	adjacent  [2]*Clip // previous, next
	adjLooked [2]bool
}

// New detects the essence at path: a directory is a DNG sequence, a .braw
// file a video. It does not validate the clip.
func New(path string) (*Clip, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPath, path, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPath, err)
	}

	c := &Clip{path: abs}
	switch {
	case st.IsDir():
		c.format = &sequence{dir: abs}
	case st.Mode().IsRegular() && strings.EqualFold(filepath.Ext(abs), ".braw"):
		c.format = &video{file: abs}
	default:
		return nil, fmt.Errorf("%w: %s is neither a frame folder nor a .braw file", ErrBadPath, abs)
	}
	return c, nil
}

// Path returns the clip's absolute root path.
func (c *Clip) Path() string { return c.path }

// Essence returns the clip's essence kind.
func (c *Clip) Essence() Essence { return c.format.essence() }

// Valid reports whether Validate succeeded.
func (c *Clip) Valid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid
}

// Validate checks the clip has sequenceable frames and discovers the
// sequencing field. Calling it again on a valid clip is a no-op.
func (c *Clip) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid {
		return nil
	}
	if err := c.format.validate(); err != nil {
		return err
	}
	c.valid = true
	slog.Debug("clip: validated", "path", c.path, "essence", c.format.essence())
	return nil
}

// SequencingField returns the discovered field; ok is false before
// validation or for non-sequence clips.
func (c *Clip) SequencingField() (SequencingField, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid {
		return SequencingField{}, false
	}
	return c.format.sequencingField()
}

// ReadMetadata reads the clip metadata from its first frame. Once it has
// succeeded, further calls return nil without touching the disk.
func (c *Clip) ReadMetadata() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.metadata != nil {
		return nil
	}
	if !c.valid {
		return ErrClipNotValidated
	}
	md, err := c.format.readMetadata()
	if err != nil {
		return err
	}
	c.metadata = md
	slog.Info("clip: metadata read", "path", c.path, "metadata", md.String())
	return nil
}

// Metadata returns the cached metadata, or nil before ReadMetadata.
func (c *Clip) Metadata() *Metadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metadata
}

// FramePath returns the file holding frame n.
func (c *Clip) FramePath(n uint32) (string, error) {
	if !c.Valid() {
		return "", ErrClipNotValidated
	}
	return c.format.framePath(n)
}

// FrameNumber parses the frame number from a frame path.
func (c *Clip) FrameNumber(path string) (uint32, error) {
	if !c.Valid() {
		return 0, ErrClipNotValidated
	}
	return c.format.frameNumber(path)
}

// RawParameters returns the current user adjustments.
func (c *Clip) RawParameters() RawParameters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetRawParameters replaces the user adjustments.
func (c *Clip) SetRawParameters(p RawParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = p
	c.mu.Unlock()
	return nil
}

// Decoder returns the per-frame decode function. Metadata must have been
// read. codec handles compressed frames and may be nil.
func (c *Clip) Decoder(codec Codec) (DecodeFunc, error) {
	md := c.Metadata()
	if md == nil {
		return nil, fmt.Errorf("%w: metadata not read", ErrClipNotValidated)
	}
	return c.format.decoder(md, codec), nil
}

func (c *Clip) String() string {
	return fmt.Sprintf("%s (%s)", c.path, c.format.essence())
}
