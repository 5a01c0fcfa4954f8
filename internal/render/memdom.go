// internal/render/memdom.go
package render

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MemElement is the stored state of one element on the in-memory surface.
type MemElement struct {
	Parent    Handle
	Items     []string
	Offsets   map[string]float64
	Transform string
}

// MemDOM is an in-memory Renderer. It records every style write so tests can
// assert on the exact sequence of mutations, and it can be made to fail on
// demand to exercise the engine's recovery paths.
type MemDOM struct {
	mu       sync.Mutex
	logger   *zap.Logger
	next     Handle
	elements map[Handle]*MemElement

	// WriteCount is incremented on every style mutation.
	WriteCount int

	// FailApply, FailRead, and FailOffset, when set, force the corresponding
	// operation to return an error. Used by tests and fault-injection demos.
	FailApply  bool
	FailRead   bool
	FailOffset bool
}

var _ Renderer = (*MemDOM)(nil)

// NewMemDOM creates an empty in-memory surface.
func NewMemDOM(logger *zap.Logger) *MemDOM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemDOM{
		logger:   logger.With(zap.String("component", "memdom")),
		elements: make(map[Handle]*MemElement),
	}
}

// NewContainer allocates a root element to act as a marquee container.
func (m *MemDOM) NewContainer() Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alloc(NoHandle, nil)
}

// alloc assumes the caller holds the lock.
func (m *MemDOM) alloc(parent Handle, items []string) Handle {
	m.next++
	h := m.next
	m.elements[h] = &MemElement{
		Parent:  parent,
		Items:   items,
		Offsets: make(map[string]float64),
	}
	return h
}

func (m *MemDOM) CreateBlock(container Handle, items []string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.elements[container]; !ok {
		return NoHandle, fmt.Errorf("memdom: unknown container handle %d", container)
	}
	h := m.alloc(container, append([]string(nil), items...))
	m.logger.Debug("Created content block", zap.Int64("handle", int64(h)), zap.Int("items", len(items)))
	return h, nil
}

func (m *MemDOM) SetOffset(h Handle, prop string, px float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOffset {
		return fmt.Errorf("memdom: forced offset failure on handle %d", h)
	}
	el, ok := m.elements[h]
	if !ok {
		return fmt.Errorf("memdom: unknown handle %d", h)
	}
	el.Offsets[prop] = px
	m.WriteCount++
	return nil
}

func (m *MemDOM) ApplyTransform(h Handle, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailApply {
		return fmt.Errorf("memdom: forced apply failure on handle %d", h)
	}
	el, ok := m.elements[h]
	if !ok {
		return fmt.Errorf("memdom: unknown handle %d", h)
	}
	el.Transform = value
	m.WriteCount++
	return nil
}

func (m *MemDOM) ReadTransform(h Handle) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead {
		return "", fmt.Errorf("memdom: forced read failure on handle %d", h)
	}
	el, ok := m.elements[h]
	if !ok {
		return "", fmt.Errorf("memdom: unknown handle %d", h)
	}
	return el.Transform, nil
}

func (m *MemDOM) Release(h Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.elements, h)
}

// Element returns a copy of the stored element state, or false if the handle
// is unknown. Test helper.
func (m *MemDOM) Element(h Handle) (MemElement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[h]
	if !ok {
		return MemElement{}, false
	}
	cp := MemElement{
		Parent:    el.Parent,
		Items:     append([]string(nil), el.Items...),
		Transform: el.Transform,
		Offsets:   make(map[string]float64, len(el.Offsets)),
	}
	for k, v := range el.Offsets {
		cp.Offsets[k] = v
	}
	return cp, true
}

// Len reports the number of live elements.
func (m *MemDOM) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.elements)
}
