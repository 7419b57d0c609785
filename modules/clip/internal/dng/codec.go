package dng

// Codec decodes one compressed strip or tile into 16-bit little-endian
// samples. dst holds exactly width*height samples.
//
// Lossless JPEG (LJ92) lives outside this module; frames using it fail
// with ErrUnsupportedCompression unless a Codec is supplied.
type Codec interface {
	Decode(dst, src []byte, width, height, bitDepth int) error
}

// CodecFunc adapts a function to Codec.
type CodecFunc func(dst, src []byte, width, height, bitDepth int) error

func (f CodecFunc) Decode(dst, src []byte, width, height, bitDepth int) error {
	return f(dst, src, width, height, bitDepth)
}
