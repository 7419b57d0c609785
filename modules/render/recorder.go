package render

import (
	"image"
	"sync"
)

// Upload is one recorded UploadTexture call.
type Upload struct {
	Origin image.Point
	Size   image.Point
	Offset int
	Len    int // len(data) at the time of the call
}

// Recorder is a Backend that remembers what it was given. Safe for
// concurrent use. Set FailUpload or FailUniform to inject errors.
type Recorder struct {
	mu        sync.Mutex
	uploads   []Upload
	uniforms  map[string]any
	presented []uint32

	FailUpload  error
	FailUniform error
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{uniforms: make(map[string]any)}
}

func (r *Recorder) UploadTexture(origin, size image.Point, data []byte, offset int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpload != nil {
		return r.FailUpload
	}
	r.uploads = append(r.uploads, Upload{Origin: origin, Size: size, Offset: offset, Len: len(data)})
	return nil
}

func (r *Recorder) SetUniform(name string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUniform != nil {
		return r.FailUniform
	}
	if r.uniforms == nil {
		r.uniforms = make(map[string]any)
	}
	r.uniforms[name] = v
	return nil
}

func (r *Recorder) Present(frame uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presented = append(r.presented, frame)
	return nil
}

// Uploads returns a copy of the recorded uploads.
func (r *Recorder) Uploads() []Upload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Upload(nil), r.uploads...)
}

// Uniform returns the last value set for name.
func (r *Recorder) Uniform(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.uniforms[name]
	return v, ok
}

// Presented returns the presented frame numbers in order.
func (r *Recorder) Presented() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint32(nil), r.presented...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.uploads = nil
	r.uniforms = make(map[string]any)
	r.presented = nil
}
