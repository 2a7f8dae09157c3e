// Package destination classifies configured backup destinations and resolves
// them to filesystem paths (or REST URLs), mounting volumes on demand and
// guaranteeing that any mount it created is released afterwards.
package destination

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"bare-backup/src/device"
	"bare-backup/src/mount"
)

// Type is the classified kind of a destination string.
type Type string

const (
	// TypeVolume is a volume label to be discovered and mounted.
	TypeVolume Type = "volume"
	// TypeAbsPath is a path that must already exist; never mounted or owned.
	TypeAbsPath Type = "abs_path"
	// TypeRestServer is a restic REST server URL, passed through unchanged.
	TypeRestServer Type = "rest_server"
)

// restScheme tags restic REST server destinations, e.g.
// "rest:https://host:8000/repo".
const restScheme = "rest:"

// ErrMissingPath means an absolute-path destination does not exist. Distinct
// from a device not being found.
var ErrMissingPath = errors.New("destination path does not exist")

// Detect classifies a raw destination string. It is pure and total: every
// string maps to exactly one type.
func Detect(raw string) Type {
	if rest, ok := strings.CutPrefix(raw, restScheme); ok {
		if u, err := url.Parse(rest); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
			return TypeRestServer
		}
	}
	if !filepath.IsAbs(raw) {
		if _, err := os.Stat(raw); err != nil {
			return TypeVolume
		}
	}
	return TypeAbsPath
}

// Mounter is the slice of the mount dispatcher the handler needs.
type Mounter interface {
	Mount(ctx context.Context, f device.Filter, opts mount.Options) (bool, error)
	Unmount(ctx context.Context, f device.Filter) error
}

// Handler resolves one destination for the duration of one backup operation.
// Acquire must be paired with Release on every exit path; prefer With, which
// guarantees it.
type Handler struct {
	Raw  string
	Type Type
	// RelPath is an optional suffix composed under the mount point.
	RelPath string
	// MountOptions are forwarded to the dispatcher when Acquire mounts the
	// backing volume.
	MountOptions mount.Options

	mounter  Mounter
	registry *device.Registry

	ownsMount bool
}

func NewHandler(raw, relPath string, mounter Mounter, registry *device.Registry) *Handler {
	return &Handler{
		Raw:      raw,
		Type:     Detect(raw),
		RelPath:  relPath,
		mounter:  mounter,
		registry: registry,
	}
}

// OwnsMount reports whether the last Acquire performed the mount itself.
func (h *Handler) OwnsMount() bool { return h.ownsMount }

// Acquire resolves the destination to a usable path or URL, mounting the
// backing volume when needed. Whether this handler owns the mount is
// recorded for Release.
func (h *Handler) Acquire(ctx context.Context) (string, error) {
	switch h.Type {
	case TypeRestServer:
		return h.Raw, nil
	case TypeAbsPath:
		if _, err := os.Stat(h.Raw); err != nil {
			return "", fmt.Errorf("%w: %s", ErrMissingPath, h.Raw)
		}
		return h.Raw, nil
	default:
		return h.mountVolume(ctx)
	}
}

func (h *Handler) mountVolume(ctx context.Context) (string, error) {
	filter := device.Filter{Label: h.Raw}
	newly, err := h.mounter.Mount(ctx, filter, h.MountOptions)
	if err != nil {
		return "", err
	}
	h.ownsMount = newly

	dev, err := h.registry.FindOne(ctx, filter)
	if err != nil {
		return "", err
	}
	if !dev.Mounted() {
		return "", fmt.Errorf("volume %s has no mount point after mounting", h.Raw)
	}
	return filepath.Join(dev.Mountpoints[0], h.RelPath), nil
}

// Release unmounts the volume if and only if this handler mounted it.
// Pre-existing mounts and non-volume destinations are left untouched.
func (h *Handler) Release(ctx context.Context) error {
	if h.Type != TypeVolume || !h.ownsMount {
		return nil
	}
	h.ownsMount = false
	if err := h.mounter.Unmount(ctx, device.Filter{Label: h.Raw}); err != nil {
		return fmt.Errorf("release %s: %w", h.Raw, err)
	}
	return nil
}

// With acquires the destination, runs fn with the resolved path, and
// releases on every exit path, including fn failures.
func (h *Handler) With(ctx context.Context, fn func(path string) error) error {
	path, err := h.Acquire(ctx)
	if err != nil {
		return err
	}
	fnErr := fn(path)
	if relErr := h.Release(ctx); relErr != nil {
		log.Warn().Str("destination", h.Raw).Err(relErr).Msg("release after backup failed")
		return errors.Join(fnErr, relErr)
	}
	return fnErr
}
