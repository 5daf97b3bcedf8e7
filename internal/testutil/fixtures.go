package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// RunningSnapshot is a flow with one finished, one running and one pending
// stage. Timestamps are epoch milliseconds.
const RunningSnapshot = `{
  "graph_id": "flow-1",
  "function_id": "shop/checkout",
  "created": 1000,
  "main_ended": null,
  "finished": null,
  "nodes": [
    {"stage_id": "0", "op": "supply", "state": "successful", "created": 1000, "started": 1020, "completed": 1080, "dependencies": []},
    {"stage_id": "1", "op": "thenApply", "state": "running", "created": 1080, "started": 1300, "dependencies": ["0"], "call_id": "01CALL"},
    {"stage_id": "2", "op": "thenCompose", "state": "pending", "created": 1100, "dependencies": ["1"]}
  ]
}`

// FinishedSnapshot is RunningSnapshot after every stage completed.
const FinishedSnapshot = `{
  "graph_id": "flow-1",
  "function_id": "shop/checkout",
  "created": 1000,
  "main_ended": 2400,
  "finished": 2500,
  "nodes": [
    {"stage_id": "0", "op": "supply", "state": "successful", "created": 1000, "started": 1020, "completed": 1080, "dependencies": []},
    {"stage_id": "1", "op": "thenApply", "state": "successful", "created": 1080, "started": 1300, "completed": 1900, "dependencies": ["0"], "call_id": "01CALL"},
    {"stage_id": "2", "op": "thenCompose", "state": "failed", "created": 1100, "started": 1950, "completed": 2300, "dependencies": ["1"]}
  ]
}`

// WriteSnapshot writes content to dir/name and returns the path.
func WriteSnapshot(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write snapshot %s: %v", path, err)
	}
	return path
}
