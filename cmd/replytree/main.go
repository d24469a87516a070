package main

import (
	"os"
	"strings"

	"replytree/internal/cli"
)

// directLookup maps an id prefix to the show command it is a shortcut for.
var directLookup = []struct {
	prefix string
	cmd    []string
}{
	{"ent-", []string{"entries", "show"}},
	{"thr-", []string{"threads", "show"}},
}

func lookupFor(s string) []string {
	s = strings.TrimSpace(s)
	for _, d := range directLookup {
		// Keep it permissive; users paste ids from logs and JSON.
		if strings.HasPrefix(s, d.prefix) && len(s) > len(d.prefix) {
			return d.cmd
		}
	}
	return nil
}

// rewriteDirectLookupArgs makes `replytree <id>` work like `replytree entries show <id>`
// (or `threads show` for a thread id).
//
// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before parsing.
// Persistent flags may come first (`replytree --dir ... <id>`), so this finds the first
// positional token rather than looking at argv[1].
func rewriteDirectLookupArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so the id is never swallowed.
	valueFlags := map[string]bool{
		"--dir":       true,
		"--actor":     true,
		"--format":    true,
		"--log-level": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	splice := func(at int, sub []string) []string {
		out := make([]string, 0, len(argv)+len(sub))
		out = append(out, argv[:at]...)
		out = append(out, sub...)
		out = append(out, argv[at:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if sub := lookupFor(argv[i+1]); sub != nil {
					return splice(i+1, sub)
				}
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			switch {
			case strings.Contains(a, "="):
			case boolFlags[a]:
			case valueFlags[a]:
				i++
			}
			continue
		}

		if sub := lookupFor(a); sub != nil {
			return splice(i, sub)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectLookupArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
