package gatt

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/ratlabs/svk"
)

// Server is the attribute table. It implements svk.AttributeServer; the host
// engine owns the canonical read/write path, the core reads and notifies
// against handles.
type Server struct {
	mu       sync.RWMutex
	attrs    []*Attribute
	byHandle map[uint16]*Attribute
}

// ErrNoAttribute is returned for a handle outside the table.
var ErrNoAttribute = errors.New("no attribute for handle")

// NewServer builds the table. Handles are assigned sequentially from 0x0001
// in declaration order: service, then each characteristic value, then its
// descriptors.
func NewServer(services ...ServiceConfig) *Server {
	s := &Server{byHandle: make(map[uint16]*Attribute)}
	var h uint16 = 0x0001

	add := func(typ svk.UUID, name string, props Props, value []byte) {
		a := &Attribute{handle: h, typ: typ, name: name, props: props, value: append([]byte(nil), value...)}
		s.attrs = append(s.attrs, a)
		s.byHandle[h] = a
		h++
	}

	for _, svc := range services {
		add(svc.Type, svc.Name, 0, nil)
		for _, ch := range svc.Characteristics {
			add(ch.Type, ch.Name, ch.Props, ch.Value)
			for _, d := range ch.Descriptors {
				add(d.Type, d.Name, d.Props, d.Value)
			}
		}
	}
	return s
}

// Attribute looks a row up by handle.
func (s *Server) Attribute(handle uint16) (*Attribute, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byHandle[handle]
	return a, ok
}

// HandleOf returns the handle of the first attribute of the given type.
func (s *Server) HandleOf(u svk.UUID) (uint16, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attrs {
		if a.typ.Equal(u) {
			return a.handle, true
		}
	}
	return 0, false
}

// Value returns a copy of the attribute's current value.
func (s *Server) Value(handle uint16) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byHandle[handle]
	if !ok {
		return nil, errors.Wrapf(ErrNoAttribute, "handle %#04x", handle)
	}
	return append([]byte(nil), a.value...), nil
}

// SetValue replaces the attribute's value. This is the local (device-side)
// path and is not capability checked.
func (s *Server) SetValue(handle uint16, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byHandle[handle]
	if !ok {
		return errors.Wrapf(ErrNoAttribute, "handle %#04x", handle)
	}
	a.value = append([]byte(nil), value...)
	return nil
}

// PeerWrite applies a peer write, honoring the capability set.
func (s *Server) PeerWrite(handle uint16, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byHandle[handle]
	if !ok {
		return errors.Wrapf(ErrNoAttribute, "handle %#04x", handle)
	}
	if !a.props.Writable() {
		return errors.Errorf("handle %#04x not writable", handle)
	}
	a.value = append([]byte(nil), value...)
	return nil
}

// Notifiable reports whether the attribute supports notifications.
func (s *Server) Notifiable(handle uint16) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byHandle[handle]
	return ok && a.props.Notifiable()
}

// Attributes returns the table rows in handle order.
func (s *Server) Attributes() []*Attribute {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}
