package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"replytree/internal/tree"
)

const testActor = "act-cli"

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

type cliEnv struct {
	dir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("REPLYTREE_CONFIG_DIR", t.TempDir())
	return &cliEnv{dir: t.TempDir()}
}

// must runs a command against the env's store and returns the decoded JSON envelope.
func (c *cliEnv) must(t *testing.T, args ...string) map[string]any {
	t.Helper()
	full := append([]string{"--dir", c.dir, "--actor", testActor}, args...)
	stdout, stderr, err := runCLI(t, full)
	if err != nil {
		t.Fatalf("command failed: replytree %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, stdout, args)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	if meta, ok := env["meta"]; ok && meta != nil {
		if _, ok := meta.(map[string]any); !ok {
			t.Fatalf("expected meta to be object; got %T", meta)
		}
	}
	return env
}

func (c *cliEnv) fail(t *testing.T, args ...string) error {
	t.Helper()
	full := append([]string{"--dir", c.dir, "--actor", testActor}, args...)
	_, _, err := runCLI(t, full)
	if err == nil {
		t.Fatalf("expected replytree %v to fail", args)
	}
	return err
}

func dataID(t *testing.T, env map[string]any) string {
	t.Helper()
	d, _ := env["data"].(map[string]any)
	id, _ := d["id"].(string)
	if id == "" {
		t.Fatalf("expected data.id; got %#v", env["data"])
	}
	return id
}

// seedThread creates a current thread holding r1 > (a > a1, b) and r2.
func (c *cliEnv) seedThread(t *testing.T) (string, map[string]string) {
	t.Helper()
	threadID := dataID(t, c.must(t, "threads", "create", "--title", "Design review", "--use"))
	ids := map[string]string{}
	add := func(name, parent string) {
		args := []string{"entries", "add", "--body", name}
		if parent != "" {
			args = append(args, "--parent", ids[parent])
		}
		ids[name] = dataID(t, c.must(t, args...))
	}
	add("r1", "")
	add("a", "r1")
	add("a1", "a")
	add("b", "r1")
	add("r2", "")
	return threadID, ids
}

func rowIDs(t *testing.T, env map[string]any) []string {
	t.Helper()
	rows, _ := env["data"].([]any)
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		m, _ := r.(map[string]any)
		if e, ok := m["entry"].(map[string]any); ok {
			m = e
		}
		id, _ := m["id"].(string)
		out = append(out, id)
	}
	return out
}

func TestOutputContract_JSONEnvelope(t *testing.T) {
	c := newCLIEnv(t)
	threadID, ids := c.seedThread(t)

	c.must(t, "threads", "list")
	c.must(t, "threads", "show")
	c.must(t, "threads", "show", threadID)
	c.must(t, "threads", "check")
	c.must(t, "entries", "list")
	c.must(t, "entries", "list", "--visible")
	c.must(t, "entries", "tree")
	c.must(t, "entries", "depths")
	c.must(t, "entries", "show", ids["a1"])
	c.must(t, "entries", "check", ids["b"], "--up")
	c.must(t, "entries", "drop-targets", ids["r2"])
	c.must(t, "events", "list", "--thread", threadID)
	c.must(t, "config", "show")
	c.must(t, "docs")
	c.must(t, "docs", "moves")
}

func TestEntriesTreeAndDepths(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	got := rowIDs(t, c.must(t, "entries", "tree"))
	want := []string{ids["r1"], ids["a"], ids["a1"], ids["b"], ids["r2"]}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("tree order: got %v want %v", got, want)
	}

	depths, _ := c.must(t, "entries", "depths")["data"].(map[string]any)
	if depths[ids["a1"]].(float64) != 3 || depths[ids["r2"]].(float64) != 1 {
		t.Fatalf("depths: got %v", depths)
	}

	stdout, stderr, err := runCLI(t, []string{"--dir", c.dir, "entries", "tree", "--plain"})
	if err != nil {
		t.Fatalf("tree --plain: %v\n%s", err, stderr)
	}
	lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")
	if len(lines) != 5 || !strings.HasPrefix(lines[2], "    - "+ids["a1"]) {
		t.Fatalf("plain tree:\n%s", stdout)
	}
}

func TestEntriesAdd_RefusesReplyPastMaxDepth(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	err := c.fail(t, "entries", "add", "--parent", ids["a1"], "--body", "too deep")
	var de tree.DepthError
	if !errors.As(err, &de) || !errors.Is(err, tree.ErrDepthLimitExceeded) {
		t.Fatalf("expected a depth error, got %v", err)
	}
}

func TestEntriesMove_Directional(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	res := c.must(t, "entries", "move", ids["b"], "--up")
	data, _ := res["data"].(map[string]any)
	if v, _ := data["version"].(float64); v == 0 {
		t.Fatalf("expected a bumped version, got %v", data)
	}
	got := rowIDs(t, c.must(t, "entries", "tree"))
	want := []string{ids["r1"], ids["b"], ids["a"], ids["a1"], ids["r2"]}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("after move: got %v want %v", got, want)
	}

	err := c.fail(t, "entries", "move", ids["a"], "--down")
	if !errors.Is(err, tree.ErrHasReplies) {
		t.Fatalf("expected ErrHasReplies, got %v", err)
	}
	err = c.fail(t, "entries", "move", ids["r1"], "--up")
	if !errors.Is(err, tree.ErrHasReplies) {
		t.Fatalf("expected ErrHasReplies for a root with replies, got %v", err)
	}
}

func TestEntriesMoveTo_CarriesReplies(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	c.must(t, "entries", "move-to", ids["a"], "--after", ids["r2"])
	got := rowIDs(t, c.must(t, "entries", "tree"))
	want := []string{ids["r1"], ids["b"], ids["r2"], ids["a"], ids["a1"]}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("after move-to: got %v want %v", got, want)
	}

	// a (height 2) under b (depth 2) would put a1 at depth 4.
	err := c.fail(t, "entries", "move-to", ids["a"], "--child", ids["b"])
	if !errors.Is(err, tree.ErrDepthLimitExceeded) {
		t.Fatalf("expected a depth refusal, got %v", err)
	}
	err = c.fail(t, "entries", "move-to", ids["r1"], "--child", ids["b"])
	if !errors.Is(err, tree.ErrSelfContainment) {
		t.Fatalf("expected a self-containment refusal, got %v", err)
	}
}

func TestEntriesMove_FlagShape(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	c.fail(t, "entries", "move", ids["b"])
	c.fail(t, "entries", "move", ids["b"], "--up", "--down")
	c.fail(t, "entries", "check", ids["b"], "--up", "--before", ids["r1"])
}

func TestEntriesCheck_IsDryRun(t *testing.T) {
	c := newCLIEnv(t)
	threadID, ids := c.seedThread(t)

	before := c.must(t, "threads", "show", threadID)["data"].(map[string]any)["version"]

	out := c.must(t, "entries", "check", ids["a"], "--up")["data"].(map[string]any)
	if out["legal"] != false || !strings.Contains(out["reason"].(string), "repl") {
		t.Fatalf("check a --up: got %v", out)
	}
	out = c.must(t, "entries", "check", ids["r2"], "--before", ids["r1"])["data"].(map[string]any)
	if out["legal"] != true {
		t.Fatalf("check r2 --before r1: got %v", out)
	}

	after := c.must(t, "threads", "show", threadID)["data"].(map[string]any)["version"]
	if before != after {
		t.Fatalf("check changed the thread version: %v -> %v", before, after)
	}
}

func TestHiddenEntriesStayAsTombstones(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	c.must(t, "entries", "hide", ids["a"])
	all := rowIDs(t, c.must(t, "entries", "list"))
	if len(all) != 5 {
		t.Fatalf("list keeps hidden entries: got %d", len(all))
	}
	visible := rowIDs(t, c.must(t, "entries", "list", "--visible"))
	if len(visible) != 4 {
		t.Fatalf("visible entries: got %d want 4", len(visible))
	}
	c.fail(t, "entries", "add", "--parent", ids["a"], "--body", "to a hidden parent")

	c.must(t, "entries", "restore", ids["a"])
	c.must(t, "entries", "add", "--parent", ids["b"], "--body", "fine")
}

func TestEventsList_FiltersByEntity(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	c.must(t, "entries", "edit", ids["b"], "--body", "edited")
	c.must(t, "entries", "move", ids["b"], "--up")

	evs, _ := c.must(t, "events", "list", "--entity", ids["b"])["data"].([]any)
	if len(evs) != 3 {
		t.Fatalf("events for b: got %d want 3 (%v)", len(evs), evs)
	}
	last, _ := evs[2].(map[string]any)
	if last["type"] != "entry.move" {
		t.Fatalf("last event: got %v", last)
	}
}

func TestConfigSetGet(t *testing.T) {
	c := newCLIEnv(t)

	c.must(t, "config", "set", "serve.addr", "127.0.0.1:9999")
	got := c.must(t, "config", "get", "serve.addr")["data"].(map[string]any)
	if got["value"] != "127.0.0.1:9999" {
		t.Fatalf("config get: got %v", got)
	}
	c.fail(t, "config", "set", "nope", "x")
}

func TestWritesNeedAnActor(t *testing.T) {
	t.Setenv("REPLYTREE_CONFIG_DIR", t.TempDir())
	t.Setenv("REPLYTREE_ACTOR", "")

	_, stderr, err := runCLI(t, []string{"--dir", t.TempDir(), "threads", "create", "--title", "x"})
	if err == nil || !strings.Contains(string(stderr), "actor") {
		t.Fatalf("expected a missing-actor error, got %v\n%s", err, stderr)
	}
}

func TestFormatYAML(t *testing.T) {
	c := newCLIEnv(t)
	c.seedThread(t)

	stdout, stderr, err := runCLI(t, []string{"--dir", c.dir, "--format", "yaml", "threads", "list"})
	if err != nil {
		t.Fatalf("threads list yaml: %v\n%s", err, stderr)
	}
	if !strings.HasPrefix(string(stdout), "data:") || !strings.Contains(string(stdout), "title: Design review") {
		t.Fatalf("yaml output:\n%s", stdout)
	}
}

func TestThreadsExport(t *testing.T) {
	c := newCLIEnv(t)
	threadID, ids := c.seedThread(t)

	stdout, stderr, err := runCLI(t, []string{"--dir", c.dir, "threads", "export"})
	if err != nil {
		t.Fatalf("export: %v\n%s", err, stderr)
	}
	if !strings.HasPrefix(string(stdout), "# Design review") || !strings.Contains(string(stdout), ids["a1"]) {
		t.Fatalf("export stdout:\n%s", stdout)
	}

	out := t.TempDir()
	c.must(t, "threads", "export", threadID, "--to", out)
	if _, err := os.Stat(filepath.Join(out, "threads", threadID+".md")); err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
	c.fail(t, "threads", "export", threadID, "--to", out)
	c.must(t, "threads", "export", threadID, "--to", out, "--overwrite")
}

func TestThreadsRenumberKeepsOrder(t *testing.T) {
	c := newCLIEnv(t)
	_, ids := c.seedThread(t)

	before := rowIDs(t, c.must(t, "entries", "tree"))
	c.must(t, "threads", "renumber")
	after := rowIDs(t, c.must(t, "entries", "tree"))
	if strings.Join(before, ",") != strings.Join(after, ",") {
		t.Fatalf("renumber changed order: %v -> %v", before, after)
	}
	if len(after) != len(ids) {
		t.Fatalf("rows: got %d want %d", len(after), len(ids))
	}
}
