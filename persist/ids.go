package persist

import (
	"bytes"
	"sync"
)

// PersistentIDs is ordered set of acknowledged message ids.
// Stored as one id per line.
type PersistentIDs struct {
	mu   sync.Mutex
	list []string
	set  map[string]struct{}
}

// Add appends unknown ids, returns number added.
func (p *PersistentIDs) Add(ids ...string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.add(ids)
}

func (p *PersistentIDs) add(ids []string) int {
	if p.set == nil {
		p.set = make(map[string]struct{}, len(ids))
	}
	n := 0
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := p.set[id]; ok {
			continue
		}
		p.set[id] = struct{}{}
		p.list = append(p.list, id)
		n++
	}
	return n
}

func (p *PersistentIDs) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.list)
}

func (p *PersistentIDs) List() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := make([]string, len(p.list))
	copy(r, p.list)
	return r
}

func (p *PersistentIDs) MarshalBinary() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var buf bytes.Buffer
	for _, id := range p.list {
		buf.WriteString(id)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces content. Blank lines and surrounding space are skipped.
func (p *PersistentIDs) UnmarshalBinary(b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list, p.set = nil, nil
	lines := bytes.Split(b, []byte{'\n'})
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = bytes.TrimSpace(line); len(line) != 0 {
			ids = append(ids, string(line))
		}
	}
	p.add(ids)
	return nil
}
