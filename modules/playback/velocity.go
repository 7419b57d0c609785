package playback

// Velocity is the playback direction.
type Velocity int

const (
	Forward Velocity = iota
	Backward
)

func (v Velocity) String() string {
	if v == Backward {
		return "backward"
	}
	return "forward"
}

// SetVelocity sets the playback direction. Only Forward is supported;
// the cursors have no reverse stepping.
func (p *Player) SetVelocity(v Velocity) error {
	if v != Forward {
		return ErrNotImplemented
	}
	p.mu.Lock()
	p.velocity = v
	p.mu.Unlock()
	return nil
}

// Velocity returns the playback direction.
func (p *Player) Velocity() Velocity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.velocity
}
