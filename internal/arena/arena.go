// Package arena stores objects under small positive integer ids, reusing
// the smallest freed id first so that ids stay almost contiguous.
package arena

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
)

var (
	// ErrAlreadyExists is returned when creating an object under a used id
	ErrAlreadyExists = errors.New("id already in use")
	// ErrNotFound is returned for unknown ids
	ErrNotFound = errors.New("unknown id")
)

// ID is any unsigned integer id type. Zero is never a valid id.
type ID interface {
	~uint32 | ~uint64
}

// Container maps ids to objects
type Container[K ID, V any] struct {
	objects    map[K]V
	continuous bool
}

// New creates an empty container
func New[K ID, V any]() *Container[K, V] {
	return &Container[K, V]{objects: make(map[K]V), continuous: true}
}

// NextAvailableID returns the id Create would pick for a zero id
func (c *Container[K, V]) NextAvailableID() K {
	size := K(len(c.objects))
	if c.continuous {
		return size + 1
	}
	var id K = 1
	for _, used := range c.SortedIDs() {
		if used != id {
			return id
		}
		id++
	}
	return id
}

// Create stores v under id, or under NextAvailableID when id is zero, and
// returns the id used.
func (c *Container[K, V]) Create(id K, v V) (K, error) {
	if id == 0 {
		id = c.NextAvailableID()
	}
	if _, ok := c.objects[id]; ok {
		return 0, errors.Wrapf(ErrAlreadyExists, "%d", id)
	}
	c.objects[id] = v
	c.continuous = c.continuous && id == K(len(c.objects))
	if !c.continuous {
		c.checkContinuous()
	}
	return id, nil
}

// Delete removes id
func (c *Container[K, V]) Delete(id K) error {
	if _, ok := c.objects[id]; !ok {
		return errors.Wrapf(ErrNotFound, "%d", id)
	}
	delete(c.objects, id)
	c.checkContinuous()
	return nil
}

func (c *Container[K, V]) checkContinuous() {
	for _, id := range c.SortedIDs() {
		if id > K(len(c.objects)) {
			c.continuous = false
			return
		}
	}
	c.continuous = true
}

// Get returns the object stored under id
func (c *Container[K, V]) Get(id K) (V, bool) {
	v, ok := c.objects[id]
	return v, ok
}

// Len returns the number of objects
func (c *Container[K, V]) Len() int {
	return len(c.objects)
}

// SortedIDs returns all ids in increasing order
func (c *Container[K, V]) SortedIDs() []K {
	ids := make([]K, 0, len(c.objects))
	for id := range c.objects {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[K])
	return ids
}

// Values returns all objects ordered by id
func (c *Container[K, V]) Values() []V {
	res := make([]V, 0, len(c.objects))
	for _, id := range c.SortedIDs() {
		res = append(res, c.objects[id])
	}
	return res
}
