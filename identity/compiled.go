package identity

import (
	"github.com/LdDl/myrmidon-go/chrono"
)

// Compiled is an immutable view of a Manager, safe to share between
// goroutines processing frames.
type Compiled struct {
	byTag    map[TagID][]*Identification
	capsules map[IndividualID][]TypedCapsule
}

// Compile snapshots the identifications and capsules of the manager.
// Later mutations of the manager are not reflected.
func (m *Manager) Compile() *Compiled {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := &Compiled{
		byTag:    make(map[TagID][]*Identification, len(m.byTag)),
		capsules: make(map[IndividualID][]TypedCapsule, m.individuals.Len()),
	}
	for tag, list := range m.byTag {
		cp := make([]*Identification, len(list))
		for i, ident := range list {
			clone := ident.clone()
			cp[i] = &clone
		}
		c.byTag[tag] = cp
	}
	for _, ind := range m.individuals.Values() {
		if len(ind.capsules) == 0 {
			continue
		}
		cp := make([]TypedCapsule, len(ind.capsules))
		copy(cp, ind.capsules)
		c.capsules[ind.id] = cp
	}
	return c
}

// Identify returns the identification of tag valid at t
func (c *Compiled) Identify(tag TagID, t chrono.Time) (Identification, bool) {
	ident := identify(c.byTag[tag], t)
	if ident == nil {
		return Identification{}, false
	}
	return ident.clone(), true
}

// Capsules returns the capsules of an individual. The slice must not be modified.
func (c *Compiled) Capsules(id IndividualID) []TypedCapsule {
	return c.capsules[id]
}
