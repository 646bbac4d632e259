package export

import "strconv"

// Google Calendar event colors 1 to 11.
const paletteSize = 11

type colorSlot struct {
	colorID  string
	lastUsed int
}

// Palette hands out calendar color ids per task. Once all colors are taken
// the least recently used task gives its color up.
type Palette struct {
	tasks map[string]*colorSlot
	tick  int
}

func NewPalette() *Palette {
	return &Palette{tasks: make(map[string]*colorSlot)}
}

// ColorID returns the color id for name, assigning one if needed.
func (p *Palette) ColorID(name string) string {
	p.tick++
	if slot, exists := p.tasks[name]; exists {
		slot.lastUsed = p.tick
		return slot.colorID
	}
	return p.assign(name)
}

func (p *Palette) assign(name string) string {
	used := make(map[string]bool, len(p.tasks))
	for _, s := range p.tasks {
		used[s.colorID] = true
	}

	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			p.tasks[name] = &colorSlot{colorID: id, lastUsed: p.tick}
			return id
		}
	}

	// Full: evict the least recently used task.
	var oldest string
	oldestTick := p.tick
	for n, s := range p.tasks {
		if s.lastUsed < oldestTick {
			oldestTick = s.lastUsed
			oldest = n
		}
	}
	recycled := p.tasks[oldest].colorID
	delete(p.tasks, oldest)
	p.tasks[name] = &colorSlot{colorID: recycled, lastUsed: p.tick}
	return recycled
}
