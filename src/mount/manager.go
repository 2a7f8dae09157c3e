package mount

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"bare-backup/src/platform"
)

// Session is one tagged mount directory that currently hosts a live mount.
// Device may be empty when the platform lookup cannot resolve the occupant
// (mount table race); the path alone is enough to unwind it.
type Session struct {
	Device string
	Path   string
}

// Manager reconciles mount sessions independently of the process that
// created them: after a crash mid-backup the tagged directories are the only
// record of what this subsystem mounted.
type Manager struct {
	Dispatcher *Dispatcher
	Platform   platform.Platform
	// Root overrides the session root, for tests.
	Root string
}

func NewManager(d *Dispatcher, p platform.Platform) *Manager {
	return &Manager{Dispatcher: d, Platform: p}
}

func (m *Manager) root() string {
	if m.Root != "" {
		return m.Root
	}
	return SessionRoot()
}

// taggedEntries lists the names under the session root carrying the tag.
func (m *Manager) taggedEntries() ([]string, error) {
	entries, err := os.ReadDir(m.root())
	if err != nil {
		return nil, fmt.Errorf("scan session root: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.Contains(e.Name(), Tag) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Sessions returns every tagged directory that is currently a live mount,
// with the device identifier resolved through the platform lookup where
// possible.
func (m *Manager) Sessions(ctx context.Context) ([]Session, error) {
	names, err := m.taggedEntries()
	if err != nil {
		return nil, err
	}
	var sessions []Session
	for _, name := range names {
		path := filepath.Join(m.root(), name)
		if !IsMountPoint(path) {
			continue
		}
		dev, err := m.Platform.DeviceForMountPoint(ctx, path)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("could not resolve device for mount session")
			dev = ""
		}
		sessions = append(sessions, Session{Device: dev, Path: path})
	}
	return sessions, nil
}

// UnmountAll unmounts every live session found under the root, regardless of
// which process created it. Failures are collected so one stuck mount does
// not strand the rest.
func (m *Manager) UnmountAll(ctx context.Context) error {
	sessions, err := m.Sessions(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, s := range sessions {
		log.Info().Str("path", s.Path).Str("device", s.Device).Msg("unmounting session")
		if err := m.Dispatcher.UnmountPath(ctx, s.Path); err != nil {
			errs = append(errs, fmt.Errorf("unmount %s: %w", s.Path, err))
		}
	}
	return errors.Join(errs...)
}

// Clean garbage-collects leftover tagged entries: broken symbolic links are
// removed, empty non-mount directories are removed, anything that is a live
// mount or holds files is left untouched.
func (m *Manager) Clean() error {
	names, err := m.taggedEntries()
	if err != nil {
		return err
	}
	var errs []error
	for _, name := range names {
		path := filepath.Join(m.root(), name)
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		if info.Mode()&os.ModeSymlink != 0 {
			if err := m.cleanBrokenSymlink(path); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if IsMountPoint(path) {
			continue
		}
		empty, err := isEmptyDir(path)
		if err != nil || !empty {
			continue
		}
		log.Debug().Str("path", path).Msg("removing leftover session directory")
		if err := os.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) cleanBrokenSymlink(path string) error {
	target, err := os.Readlink(path)
	if err != nil {
		return fmt.Errorf("read link %s: %w", path, err)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	log.Debug().Str("path", path).Str("target", target).Msg("removing broken session symlink")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove broken link %s: %w", path, err)
	}
	return nil
}

func isEmptyDir(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
