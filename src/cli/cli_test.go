package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bare-backup/src/cli"
)

func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSessionFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.yml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write session: %v", err)
	}
	return path
}

func TestGlobalFlagsPresent(t *testing.T) {
	cmd := cli.NewRootCmd(nil, nil)
	for _, name := range []string{"dry-run", "yes", "verbose", "session", "target"} {
		if f := cmd.PersistentFlags().Lookup(name); f == nil {
			t.Fatalf("missing global flag --%s", name)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, _, err := runRoot(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) == "" {
		t.Fatalf("expected a version string, got %q", out)
	}
}

func TestRootHelpListsCommands(t *testing.T) {
	out, _, err := runRoot(t, "--help")
	if err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"backup", "restic", "umount", "list", "version"} {
		if !strings.Contains(out, sub) {
			t.Fatalf("help output missing %q:\n%s", sub, out)
		}
	}
}

func TestListTargets(t *testing.T) {
	session := writeSessionFile(t, `
nas:
  destination: backup-disk
  source: [/data]
  restic:
    enable: true
    password: x
offsite:
  destination: rest:https://backup.example.com/repo
  source: [/data]
`)

	out, _, err := runRoot(t, "list", "targets", "--session", session)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"nas:", "offsite:", "type: volume", "type: rest_server"} {
		if !strings.Contains(out, want) {
			t.Fatalf("yaml output missing %q:\n%s", want, out)
		}
	}
}

func TestListUnknownSubject(t *testing.T) {
	_, _, err := runRoot(t, "list", "nonsense")
	if err == nil {
		t.Fatalf("expected error for unknown list subject")
	}
}

func TestBackupUnknownTarget(t *testing.T) {
	session := writeSessionFile(t, `
nas:
  destination: backup-disk
  source: [/data]
`)

	_, _, err := runRoot(t, "backup", "absent", "--session", session)
	if err == nil || !strings.Contains(err.Error(), "unknown target") {
		t.Fatalf("expected unknown target error, got %v", err)
	}
}

func TestBackupMissingSessionFile(t *testing.T) {
	_, _, err := runRoot(t, "backup", "--session", filepath.Join(t.TempDir(), "absent.yml"))
	if err == nil {
		t.Fatalf("expected error for missing session file")
	}
}

func TestResticRequiresArgs(t *testing.T) {
	session := writeSessionFile(t, `
nas:
  destination: backup-disk
  source: [/data]
`)

	_, _, err := runRoot(t, "restic", "nas", "--session", session)
	if err == nil {
		t.Fatalf("expected error when no restic arguments are given")
	}
}
