// Package config loads the session file describing backup targets: where to
// back up from, which destination to resolve, and which engines to run.
//
// Lookup order: an explicit --session path, then ./session.yml, then
// ~/.config/bare/session.yml. Targets without a destination are dropped,
// matching the behavior of omitting them from the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Retention mirrors restic's forget policy flags. Zero values are omitted
// from the forget invocation.
type Retention struct {
	KeepLast    int  `mapstructure:"keep-last"`
	KeepDaily   int  `mapstructure:"keep-daily"`
	KeepWeekly  int  `mapstructure:"keep-weekly"`
	KeepMonthly int  `mapstructure:"keep-monthly"`
	Prune       bool `mapstructure:"prune"`
}

// ResticConfig configures the restic engine for one target.
type ResticConfig struct {
	Enable   bool       `mapstructure:"enable"`
	Password string     `mapstructure:"password"`
	Folder   string     `mapstructure:"folder"`
	Args     []string   `mapstructure:"args"`
	Forget   *Retention `mapstructure:"forget"`
}

// RsyncConfig configures the rsync engine for one target.
type RsyncConfig struct {
	Enable bool     `mapstructure:"enable"`
	Folder string   `mapstructure:"folder"`
	Args   []string `mapstructure:"args"`
}

// Mask remaps a path inside backup commands via the sandbox wrapper, so
// snapshots taken from a mounted image carry the original paths.
type Mask struct {
	Real   string `mapstructure:"real" validate:"required"`
	Masked string `mapstructure:"masked" validate:"required"`
}

// Target is one configured backup destination with its sources and engines.
type Target struct {
	Destination   string       `mapstructure:"destination" validate:"required"`
	RelPath       string       `mapstructure:"rel_path"`
	Sources       []string     `mapstructure:"source" validate:"required,min=1"`
	Mask          *Mask        `mapstructure:"mask"`
	// VolumePassword unlocks the destination when it is an encrypted overlay.
	VolumePassword string `mapstructure:"volume_password"`
	Hostname      string       `mapstructure:"hostname"`
	CheckHostname bool         `mapstructure:"check_hostname"`
	Restic        ResticConfig `mapstructure:"restic"`
	Rsync         RsyncConfig  `mapstructure:"rsync"`
}

// Session maps target names to their configuration.
type Session map[string]Target

// Names returns the configured target names, sorted.
func (s Session) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ErrNoSessionFile means no session file was found in any lookup location.
var ErrNoSessionFile = errors.New("no session file found")

var validate = validator.New()

// Load reads and validates the session file. With an empty path the default
// lookup locations are searched.
func Load(path string) (Session, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(resolved)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read session file %s: %w", resolved, err)
	}

	session := Session{}
	for name := range v.AllSettings() {
		var t Target
		if err := v.UnmarshalKey(name, &t); err != nil {
			return nil, fmt.Errorf("session target %s: %w", name, err)
		}
		if t.Destination == "" {
			continue
		}
		applyDefaults(&t)
		if err := validate.Struct(t); err != nil {
			return nil, fmt.Errorf("session target %s: %w", name, err)
		}
		session[name] = t
	}
	return session, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if _, err := os.Stat("session.yml"); err == nil {
		return "session.yml", nil
	}
	home, err := os.UserHomeDir()
	if err == nil {
		candidate := filepath.Join(home, ".config", "bare", "session.yml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", ErrNoSessionFile
}

func applyDefaults(t *Target) {
	if t.Hostname == "" {
		t.Hostname = Hostname()
	}
	if len(t.Sources) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			t.Sources = []string{home}
		}
	}
	if t.Restic.Folder == "" {
		t.Restic.Folder = "restic"
	}
	if t.Rsync.Folder == "" {
		t.Rsync.Folder = "rsync"
	}
}

// Hostname returns the machine name used as the backup parent folder,
// without the ".local" suffix macOS appends.
func Hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown-host"
	}
	return strings.TrimSuffix(name, ".local")
}
