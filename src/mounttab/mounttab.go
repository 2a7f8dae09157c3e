// Package mounttab parses the output of the system mount-listing command
// into structured entries. Two line grammars exist in the wild:
//
//	Linux:  /dev/sda1 on /mnt/disk type ext4 (rw,relatime)
//	Darwin: /dev/disk2s1 on /Volumes/BACKUP (apfs, local, nodev)
//
// Malformed lines are skipped rather than failing the whole listing; the
// mount table routinely contains entries this subsystem has no stake in.
package mounttab

import "strings"

// Entry is one parsed mount-table line.
type Entry struct {
	Source  string
	Dest    string
	Fstype  string
	Options []string
}

// Grammar selects which line format Parse expects.
type Grammar int

const (
	// GrammarTypeKeyword is the Linux format with the "type" separator and
	// parenthesized options.
	GrammarTypeKeyword Grammar = iota
	// GrammarParenList is the BSD/Darwin format where fstype and options
	// share one parenthesized, comma-separated list.
	GrammarParenList
)

// Parse splits the full mount listing into entries, one per parseable line.
func Parse(output string, g Grammar) []Entry {
	var entries []Entry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if e, ok := parseLine(line, g); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func parseLine(line string, g Grammar) (Entry, bool) {
	src, rest, ok := strings.Cut(line, " on ")
	if !ok || src == "" {
		return Entry{}, false
	}
	switch g {
	case GrammarTypeKeyword:
		dest, rest, ok := strings.Cut(rest, " type ")
		if !ok || dest == "" {
			return Entry{}, false
		}
		fstype, opts, ok := strings.Cut(rest, " (")
		if !ok || fstype == "" {
			return Entry{}, false
		}
		return Entry{
			Source:  src,
			Dest:    dest,
			Fstype:  fstype,
			Options: splitOptions(opts),
		}, true
	case GrammarParenList:
		dest, rest, ok := strings.Cut(rest, " (")
		if !ok || dest == "" {
			return Entry{}, false
		}
		fields := splitOptions(rest)
		if len(fields) == 0 {
			return Entry{}, false
		}
		return Entry{
			Source:  src,
			Dest:    dest,
			Fstype:  fields[0],
			Options: fields[1:],
		}, true
	}
	return Entry{}, false
}

func splitOptions(s string) []string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ")")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
