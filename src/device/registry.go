package device

import (
	"context"
	"errors"
	"fmt"
)

// Matching errors surfaced to callers that need exactly one device.
var (
	// ErrNotFound means no device matched the filter.
	ErrNotFound = errors.New("no matching device found")
	// ErrAmbiguous means more than one device matched; the subsystem
	// deliberately refuses to guess among candidates.
	ErrAmbiguous = errors.New("multiple devices match")
	// ErrNoCriteria means the caller supplied an empty filter.
	ErrNoCriteria = errors.New("at least one of label, name or path must be set")
)

// Filter selects devices by exact match on name OR label OR mount path.
type Filter struct {
	Label string
	Name  string
	Path  string
}

func (f Filter) empty() bool { return f.Label == "" && f.Name == "" && f.Path == "" }

func (f Filter) String() string {
	switch {
	case f.Label != "":
		return "label=" + f.Label
	case f.Name != "":
		return "name=" + f.Name
	default:
		return "path=" + f.Path
	}
}

func (f Filter) matches(d Device) bool {
	if f.Name != "" && d.Name == f.Name {
		return true
	}
	if f.Label != "" && d.Label == f.Label {
		return true
	}
	if f.Path != "" {
		for _, mp := range d.Mountpoints {
			if mp == f.Path {
				return true
			}
		}
	}
	return false
}

// Registry aggregates all backend finders.
type Registry struct {
	finders []Finder
}

func NewRegistry(finders ...Finder) *Registry {
	return &Registry{finders: finders}
}

// List returns the merged output of every finder.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	var devices []Device
	for _, f := range r.finders {
		found, err := f.List(ctx)
		if err != nil {
			return nil, err
		}
		devices = append(devices, found...)
	}
	return devices, nil
}

// Find returns all devices matching the filter. Supplying an empty filter is
// a caller error. Callers needing exactly one match must check cardinality
// themselves.
func (r *Registry) Find(ctx context.Context, f Filter) ([]Device, error) {
	if f.empty() {
		return nil, ErrNoCriteria
	}
	devices, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var matched []Device
	for _, d := range devices {
		if f.matches(d) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

// FindOne returns the single device matching the filter, or ErrNotFound /
// ErrAmbiguous when zero or several devices match.
func (r *Registry) FindOne(ctx context.Context, f Filter) (Device, error) {
	matched, err := r.Find(ctx, f)
	if err != nil {
		return Device{}, err
	}
	switch len(matched) {
	case 0:
		return Device{}, fmt.Errorf("%w (%s)", ErrNotFound, f)
	case 1:
		return matched[0], nil
	default:
		return Device{}, fmt.Errorf("%w (%s, %d candidates)", ErrAmbiguous, f, len(matched))
	}
}
