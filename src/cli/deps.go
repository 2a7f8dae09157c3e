package cli

import (
	"bare-backup/src/cmdexec"
	"bare-backup/src/device"
	"bare-backup/src/finder"
	"bare-backup/src/mount"
	"bare-backup/src/platform"
)

// mountStack bundles the collaborators every mount-touching command needs.
type mountStack struct {
	runner     cmdexec.Runner
	registry   *device.Registry
	dispatcher *mount.Dispatcher
	manager    *mount.Manager
}

// newMountStack resolves the platform once and wires the device finders,
// dispatcher and session manager on top of it.
func newMountStack() (*mountStack, error) {
	runner := cmdexec.NewLocal()
	plat, err := platform.Current(runner)
	if err != nil {
		return nil, err
	}
	registry := device.NewRegistry(
		&finder.Physical{Platform: plat},
		finder.NewRclone(runner, plat),
		&finder.Gocryptfs{Platform: plat},
	)
	dispatcher := mount.NewDispatcher(registry, plat, runner)
	return &mountStack{
		runner:     runner,
		registry:   registry,
		dispatcher: dispatcher,
		manager:    mount.NewManager(dispatcher, plat),
	}, nil
}
