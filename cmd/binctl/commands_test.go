package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpCommand(t *testing.T) {
	dir := testProject(t)
	tests := []struct {
		name        string
		file        string
		json        bool
		data        bool
		wantContain []string
	}{
		{"items", "item.bin", false, false, []string{"Text (2)", `"IID_SWORD"`, `"B"`, "Labels (0)"}},
		{"characters", "person.bin", false, false, []string{"Labels (2)", "CHAR_A", `"PID_B"`}},
		{"with data", "person.bin", false, true, []string{"Data:", "00000000"}},
		{"json", "item.bin", true, false, []string{`"pointers"`, "IID_SWORD"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			jsonOut = tt.json
			dumpData = tt.data

			out, err := captureOutput(t, func() error {
				return runDump([]string{filepath.Join(dir, "data", tt.file)})
			})
			require.NoError(t, err)
			if tt.json {
				assertJSON(t, out)
			}
			for _, want := range tt.wantContain {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestDumpCommand_Errors(t *testing.T) {
	resetFlags()
	_, err := captureOutput(t, func() error { return runDump([]string{filepath.Join(t.TempDir(), "none.bin")}) })
	assert.Error(t, err)

	dir := testProject(t)
	resetFlags()
	dumpEncoding = "klingon"
	_, err = captureOutput(t, func() error { return runDump([]string{filepath.Join(dir, "data", "item.bin")}) })
	assert.Error(t, err)
}

func TestLabelsCommand(t *testing.T) {
	dir := testProject(t)
	resetFlags()
	labelsPrefix = "CHAR_"

	out, err := captureOutput(t, func() error {
		return runLabels([]string{filepath.Join(dir, "data", "person.bin")})
	})
	require.NoError(t, err)
	assert.Contains(t, out, "0x000004 CHAR_A")
	assert.Contains(t, out, "CHAR_B")

	labelsPrefix = "NOPE"
	out, err = captureOutput(t, func() error {
		return runLabels([]string{filepath.Join(dir, "data", "person.bin")})
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRoundtripCommand(t *testing.T) {
	dir := testProject(t)
	path := filepath.Join(dir, "data", "person.bin")

	t.Run("raw", func(t *testing.T) {
		resetFlags()
		out, err := captureOutput(t, func() error { return runRoundtrip([]string{path}) })
		require.NoError(t, err)
		assert.Contains(t, out, "identical")
	})

	t.Run("through schema", func(t *testing.T) {
		resetFlags()
		roundtripSchema = filepath.Join(dir, "schema")
		roundtripType = "CharFile"
		roundtripOut = filepath.Join(dir, "out", "person.bin")
		jsonOut = true

		out, err := captureOutput(t, func() error { return runRoundtrip([]string{path}) })
		require.NoError(t, err)
		assertJSON(t, out)
		assert.Contains(t, out, `"identical": true`)

		orig, err := os.ReadFile(path)
		require.NoError(t, err)
		written, err := os.ReadFile(roundtripOut)
		require.NoError(t, err)
		assert.Equal(t, orig, written)
	})

	t.Run("schema without type", func(t *testing.T) {
		resetFlags()
		roundtripSchema = filepath.Join(dir, "schema")
		_, err := captureOutput(t, func() error { return runRoundtrip([]string{path}) })
		assert.Error(t, err)
	})
}

func TestFirstDiff(t *testing.T) {
	assert.Equal(t, -1, firstDiff([]byte{1, 2}, []byte{1, 2}))
	assert.Equal(t, 1, firstDiff([]byte{1, 2}, []byte{1, 3}))
	assert.Equal(t, 2, firstDiff([]byte{1, 2}, []byte{1, 2, 3}))
}

func TestLoadCommand(t *testing.T) {
	dir := testProject(t)
	resetFlags()
	configPath = filepath.Join(dir, "binkit.yaml")
	loadSave = true

	out, err := captureOutput(t, func() error { return runLoad(context.Background(), nil) })
	require.NoError(t, err)
	assert.Contains(t, out, "items")
	assert.Contains(t, out, "characters")
	assert.Contains(t, out, "references: 1 resolved, 0 missed")
	assert.Contains(t, out, "saved 2 stores")

	for _, name := range []string{"item.bin", "person.bin"} {
		orig, err := os.ReadFile(filepath.Join(dir, "data", name))
		require.NoError(t, err)
		saved, err := os.ReadFile(filepath.Join(dir, "out", name))
		require.NoError(t, err)
		assert.Equal(t, orig, saved, name)
	}
}

func TestLoadCommand_JSONSubset(t *testing.T) {
	dir := testProject(t)
	resetFlags()
	configPath = filepath.Join(dir, "binkit.yaml")
	jsonOut = true

	out, err := captureOutput(t, func() error { return runLoad(context.Background(), []string{"characters"}) })
	require.NoError(t, err)
	assertJSON(t, out)
	assert.Contains(t, out, `"records": 3`)
	assert.NotContains(t, out, `"items"`)
}

func TestShowCommand(t *testing.T) {
	dir := testProject(t)
	resetFlags()
	configPath = filepath.Join(dir, "binkit.yaml")
	showDepth = 3

	out, err := captureOutput(t, func() error { return runShow(context.Background(), []string{"items"}) })
	require.NoError(t, err)
	assert.Contains(t, out, "ItemFile")
	assert.Contains(t, out, "iid = IID_SWORD")
	assert.Contains(t, out, "owner = -> PID_B")

	resetFlags()
	configPath = filepath.Join(dir, "binkit.yaml")
	showDepth = 0
	out, err = captureOutput(t, func() error { return runShow(context.Background(), []string{"characters"}) })
	require.NoError(t, err)
	assert.Contains(t, out, "chars = 2 items")

	_, err = captureOutput(t, func() error { return runShow(context.Background(), []string{"weapons"}) })
	assert.Error(t, err)
}
