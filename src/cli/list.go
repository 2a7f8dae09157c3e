package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"bare-backup/src/destination"
)

// listedTarget is the yaml shape printed per configured target.
type listedTarget struct {
	Destination string   `yaml:"destination"`
	Type        string   `yaml:"type"`
	Sources     []string `yaml:"sources"`
	Restic      bool     `yaml:"restic"`
	Rsync       bool     `yaml:"rsync"`
}

// listedDevice is the yaml shape printed per discovered device.
type listedDevice struct {
	Name        string   `yaml:"name"`
	Label       string   `yaml:"label,omitempty"`
	Fstype      string   `yaml:"fstype,omitempty"`
	Mountpoints []string `yaml:"mountpoints,omitempty"`
}

func newListCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list [targets|devices]",
		Short: "List configured targets or discoverable devices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := "targets"
			if len(args) == 1 {
				subject = strings.ToLower(args[0])
			}
			switch subject {
			case "targets":
				return listTargets(cmd, stdout)
			case "devices":
				return listDevices(cmd, stdout)
			default:
				return fmt.Errorf("unknown subject %q (want targets or devices)", subject)
			}
		},
	}
}

func listTargets(cmd *cobra.Command, stdout io.Writer) error {
	session, err := loadSession(cmd)
	if err != nil {
		return err
	}
	out := map[string]listedTarget{}
	for name, t := range session {
		out[name] = listedTarget{
			Destination: t.Destination,
			Type:        string(destination.Detect(t.Destination)),
			Sources:     t.Sources,
			Restic:      t.Restic.Enable,
			Rsync:       t.Rsync.Enable,
		}
	}
	return encodeYAML(stdout, out)
}

func listDevices(cmd *cobra.Command, stdout io.Writer) error {
	stack, err := newMountStack()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	devices, err := stack.registry.List(ctx)
	if err != nil {
		return err
	}
	out := make([]listedDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, listedDevice{
			Name:        d.Name,
			Label:       d.Label,
			Fstype:      d.Fstype,
			Mountpoints: d.Mountpoints,
		})
	}
	return encodeYAML(stdout, out)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
