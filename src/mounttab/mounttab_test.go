package mounttab_test

import (
	"testing"

	"bare-backup/src/mounttab"
)

func TestParse_TypeKeywordGrammar(t *testing.T) {
	out := "/dev/sda1 on /mnt/disk type ext4 (rw,relatime)\n" +
		"cipher on /tmp/bare.mnt.x type fuse.gocryptfs (rw,nosuid,nodev)\n"
	entries := mounttab.Parse(out, mounttab.GrammarTypeKeyword)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	e := entries[0]
	if e.Source != "/dev/sda1" || e.Dest != "/mnt/disk" || e.Fstype != "ext4" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if len(e.Options) != 2 || e.Options[0] != "rw" || e.Options[1] != "relatime" {
		t.Fatalf("options = %v, want [rw relatime]", e.Options)
	}
	if entries[1].Fstype != "fuse.gocryptfs" {
		t.Fatalf("fstype = %q, want fuse.gocryptfs", entries[1].Fstype)
	}
}

func TestParse_ParenListGrammar(t *testing.T) {
	out := "/dev/disk2s1 on /Volumes/BACKUP (apfs, local, nodev, nosuid)\n"
	entries := mounttab.Parse(out, mounttab.GrammarParenList)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Source != "/dev/disk2s1" || e.Dest != "/Volumes/BACKUP" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.Fstype != "apfs" {
		t.Fatalf("fstype = %q, want apfs", e.Fstype)
	}
	if len(e.Options) != 3 || e.Options[0] != "local" {
		t.Fatalf("options = %v, want [local nodev nosuid]", e.Options)
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	out := "garbage line without separators\n" +
		"\n" +
		"/dev/sdb1 on /mnt/ok type vfat (rw)\n" +
		"half on broken\n"
	entries := mounttab.Parse(out, mounttab.GrammarTypeKeyword)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1 (malformed lines skipped)", len(entries))
	}
	if entries[0].Dest != "/mnt/ok" {
		t.Fatalf("dest = %q, want /mnt/ok", entries[0].Dest)
	}
}
