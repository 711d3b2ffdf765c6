package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rowbind/internal/entitysync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, dir string, args ...string) runResult {
	t.Helper()
	cmd := NewRootCmd()
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(append([]string{"--config-dir", dir, "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return runResult{stdout: out.String(), stderr: errb.String(), err: err}
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	res := run(t, dir, args...)
	require.NoError(t, res.err, "%v\nstderr: %s", args, res.stderr)
	return res.stdout
}

const planJSON = `{
  "entities": [
    {"id": "e1", "name": "Design", "completion": 0.5,
     "range": {"lower": "2026-01-05T00:00:00Z", "upper": "2026-01-16T00:00:00Z"}},
    {"id": "e2", "name": "Build", "completion": 1.4, "parentId": "e1"},
    {"name": "Anonymous"}
  ],
  "relations": [
    {"predecessorId": "e1", "successorId": "e2", "type": "fs"}
  ]
}`

func writePlan(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "plan.json")
	require.NoError(t, os.WriteFile(p, []byte(planJSON), 0o644))
	return p
}

func decodeData(t *testing.T, s string) map[string]any {
	t.Helper()
	var env map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &env), s)
	data, ok := env["data"].(map[string]any)
	require.True(t, ok, "missing data envelope: %q", s)
	return data
}

func decodeRows(t *testing.T, s string) []map[string]string {
	t.Helper()
	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(s), &rows), s)
	return rows
}

func TestInit_CreatesConfigAndDB(t *testing.T) {
	dir := t.TempDir()
	data := decodeData(t, mustRun(t, dir, "init"))
	assert.Equal(t, filepath.Join(dir, "rowbind.sqlite"), data["db"])
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))
	assert.FileExists(t, filepath.Join(dir, "rowbind.sqlite"))
}

func TestImport_CreatesThenMatchesByID(t *testing.T) {
	dir := t.TempDir()
	plan := writePlan(t, dir)

	data := decodeData(t, mustRun(t, dir, "import", plan))
	assert.Equal(t, 3.0, data["created"])
	assert.Equal(t, 1.0, data["linked"])

	data = decodeData(t, mustRun(t, dir, "import", plan))
	// The entity without an id gets a fresh one every time.
	assert.Equal(t, 1.0, data["created"])
	assert.Equal(t, 2.0, data["unchanged"])
	assert.Equal(t, 0.0, data["linked"])

	out := mustRun(t, dir, "rows", "list", "--format", "table")
	assert.Equal(t, 2, strings.Count(out, "Anonymous"), out)
	assert.Equal(t, 1, strings.Count(out, "Design"), out)
}

func TestImport_DryRunDoesNotSave(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "import", "--dry-run", writePlan(t, dir))
	assert.Empty(t, decodeRows(t, mustRun(t, dir, "rows", "list")))
}

func TestRowsList_SortAndFilterReportStorageIndex(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "import", writePlan(t, dir))

	rows := decodeRows(t, mustRun(t, dir, "rows", "list", "--sort", "name"))
	var got []string
	for _, r := range rows {
		got = append(got, r["view"]+":"+r["storage"]+":"+r["name"])
	}
	assert.Equal(t, []string{"0:2:Anonymous", "1:1:Build", "2:0:Design"}, got)
	assert.Equal(t, "1", rows[1]["completion"], "completion is clamped")
	assert.Equal(t, "e1", rows[1]["parent"])
	assert.Equal(t, "2026-01-05", rows[2]["lower"])

	rows = decodeRows(t, mustRun(t, dir, "rows", "list", "--filter", "BU", "--column", "name", "--mode", "starts-with"))
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0]["storage"])

	assert.Error(t, run(t, dir, "rows", "list", "--sort", "nope").err, "unknown column")
	assert.Error(t, run(t, dir, "rows", "list", "--mode", "fuzzy").err, "unknown mode")
}

func TestRelations_FindAndList(t *testing.T) {
	dir := t.TempDir()
	mustRun(t, dir, "import", writePlan(t, dir))

	data := decodeData(t, mustRun(t, dir, "relations", "find", "e1", "e2", "FS"))
	values, _ := data["values"].(map[string]any)
	assert.Equal(t, 0.0, data["row"])
	assert.Equal(t, "FS", values["type"])

	res := run(t, dir, "relations", "find", "e1", "e3", "FS")
	var nf *entitysync.NotFoundError
	require.ErrorAs(t, res.err, &nf)
	assert.Contains(t, res.stderr, "relation not found: e1 -FS-> e3")
	assert.Error(t, run(t, dir, "relations", "find", "e1", "e2", "XY").err, "bad type")

	out := mustRun(t, dir, "relations", "list", "--entity", "e2", "--format", "table")
	assert.Contains(t, out, "e1")
	assert.Contains(t, out, "FS")
	assert.Error(t, run(t, dir, "relations", "list", "--entity", "ghost").err, "unknown entity")
}

func TestDocs(t *testing.T) {
	dir := t.TempDir()
	data := decodeData(t, mustRun(t, dir, "docs"))
	assert.Len(t, data["topics"], 4)

	raw := mustRun(t, dir, "docs", "sync", "--raw")
	assert.True(t, strings.HasPrefix(raw, "# Entity sync"), raw)
	assert.Contains(t, mustRun(t, dir, "docs", "sync"), "Entity sync")
	assert.Error(t, run(t, dir, "docs", "nope").err, "unknown topic")
}
