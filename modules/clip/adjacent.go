package clip

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// NextClip returns the first sibling clip after this one in name order
// that holds frames. ok is false when there is none.
func (c *Clip) NextClip() (*Clip, bool) {
	return c.adjacentClip(false)
}

// PreviousClip is the mirror of NextClip.
func (c *Clip) PreviousClip() (*Clip, bool) {
	return c.adjacentClip(true)
}

func (c *Clip) adjacentClip(previous bool) (*Clip, bool) {
	slot := 1
	if previous {
		slot = 0
	}

	c.mu.RLock()
	if c.adjLooked[slot] {
		next := c.adjacent[slot]
		c.mu.RUnlock()
		return next, next != nil
	}
	c.mu.RUnlock()

	found := c.findAdjacent(previous)

	c.mu.Lock()
	c.adjacent[slot], c.adjLooked[slot] = found, true
	c.mu.Unlock()
	return found, found != nil
}

func (c *Clip) findAdjacent(previous bool) *Clip {
	candidates, err := c.format.siblings()
	if err != nil {
		slog.Warn("clip: could not list sibling clips", "path", c.path, "error", err)
		return nil
	}
	sort.Strings(candidates)

	idx := sort.SearchStrings(candidates, c.path)
	if idx == len(candidates) || candidates[idx] != c.path {
		return nil
	}

	step := 1
	if previous {
		step = -1
	}
	for i := idx + step; i >= 0 && i < len(candidates); i += step {
		next, err := New(candidates[i])
		if err != nil {
			continue
		}
		return next
	}
	return nil
}

// siblingDirs lists the directories next to dir that contain frames,
// including dir itself.
func siblingDirs(dir string) ([]string, error) {
	parent := filepath.Dir(dir)
	if parent == dir {
		return nil, nil
	}
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(parent, e.Name())
		if p == dir || hasFrames(p) {
			dirs = append(dirs, p)
		}
	}
	return dirs, nil
}
