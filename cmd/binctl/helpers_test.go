package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/pkg/gamedata"
	"github.com/joshuapare/binkit/pkg/types"
	"github.com/joshuapare/binkit/schema"
)

const testSchema = `
kind: type
name: ItemFile
fields:
  - {id: count, kind: int, format: u16}
  - {id: items, kind: list, type: Item, count: {type: indirect, index: -1, format: u16}}
---
kind: type
name: Item
key: iid
fields:
  - {id: iid, kind: string}
  - {id: owner, kind: reference, table: characters, ref: {type: key, prefix: PID_}}
---
kind: type
name: CharFile
fields:
  - {id: count, kind: int, format: u32}
  - {id: chars, kind: list, type: Char, table: characters, count: {type: indirect, index: -1, format: u32}}
---
kind: type
name: Char
key: pid
fields:
  - {id: tag, kind: label}
  - {id: pid, kind: string}
  - {id: hp, kind: int, format: u8}
---
kind: store
name: items
path: item.bin
root: ItemFile
---
kind: store
name: characters
path: person.bin
root: CharFile
`

// testProject writes a project with two stores and returns its directory.
func testProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "schema"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "schema", "game.yaml"), []byte(testSchema), 0o644))

	sch, err := schema.Parse(strings.NewReader(testSchema), "game.yaml")
	require.NoError(t, err)
	ts, err := sch.Types()
	require.NoError(t, err)
	store := ts.AllocateStore()

	chars, err := ts.New(store, "CharFile")
	require.NoError(t, err)
	var last types.RecordID
	for i, name := range []string{"A", "B"} {
		c, err := ts.ListAdd(chars, "chars")
		require.NoError(t, err)
		require.NoError(t, ts.SetLabel(c, "tag", "CHAR_"+name))
		require.NoError(t, ts.SetString(c, "pid", "PID_"+name))
		require.NoError(t, ts.SetInt(c, "hp", int64(10*(i+1))))
		last = c
	}
	items, err := ts.New(store, "ItemFile")
	require.NoError(t, err)
	it, err := ts.ListAdd(items, "items")
	require.NoError(t, err)
	require.NoError(t, ts.SetString(it, "iid", "IID_SWORD"))
	require.NoError(t, ts.SetReference(it, "owner", last))

	data := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(data, 0o755))
	for name, root := range map[string]types.RecordID{"item.bin": items, "person.bin": chars} {
		arc, err := engine.WriteArchive(ts, root, engine.Policy{StrictWritePointers: true})
		require.NoError(t, err)
		raw, err := arc.Serialize()
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(data, name), raw, 0o644))
	}

	cfg := gamedata.DefaultConfig()
	cfg.Encoding = "utf-8"
	require.NoError(t, gamedata.SaveConfig(cfg, filepath.Join(dir, "binkit.yaml")))
	return dir
}

// resetFlags restores every global flag to its default.
func resetFlags() {
	verbose, quiet, jsonOut = false, false, false
	configPath = "binkit.yaml"
	dumpEncoding, dumpData = "utf-8", false
	labelsEncoding, labelsPrefix = "utf-8", ""
	roundtripEncoding, roundtripSchema, roundtripType, roundtripOut = "utf-8", "", "", ""
	loadSave = false
	showDepth = 2
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		done <- buf.String()
	}()

	fnErr := fn()

	w.Close()
	os.Stdout = origStdout
	return <-done, fnErr
}

// assertJSON checks that output is valid JSON
func assertJSON(t *testing.T, output string) {
	t.Helper()
	var result any
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Errorf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}
