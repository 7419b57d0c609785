package render

import (
	"image"
	"sync"
)

// Switch is a Backend that forwards to a replaceable target, so a player
// built once can render each clip into a backend sized for it. With no
// target, frames are discarded.
type Switch struct {
	mu     sync.RWMutex
	target Backend
}

// Set installs b (nil to discard) and returns the previous target.
func (s *Switch) Set(b Backend) Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.target
	s.target = b
	return prev
}

// Current returns the installed target.
func (s *Switch) Current() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

func (s *Switch) UploadTexture(origin, size image.Point, data []byte, offset int) error {
	if b := s.Current(); b != nil {
		return b.UploadTexture(origin, size, data, offset)
	}
	return nil
}

func (s *Switch) SetUniform(name string, v any) error {
	if b := s.Current(); b != nil {
		return b.SetUniform(name, v)
	}
	return nil
}

// Present forwards when the target is a Presenter.
func (s *Switch) Present(frame uint32) error {
	if p, ok := s.Current().(Presenter); ok {
		return p.Present(frame)
	}
	return nil
}
