package playback

import "github.com/e7canasta/rawplay/modules/clip"

// Source is what the player needs from a clip. *clip.Clip implements it.
type Source interface {
	Path() string
	Validate() error
	ReadMetadata() error
	Metadata() *clip.Metadata
	RawParameters() clip.RawParameters
	SetRawParameters(clip.RawParameters) error
	Decoder(codec clip.Codec) (clip.DecodeFunc, error)
}

var _ Source = (*clip.Clip)(nil)
