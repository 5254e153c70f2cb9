package main

import (
	"encoding/hex"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/internal/format"
	"github.com/joshuapare/binkit/internal/mmfile"
	"github.com/joshuapare/binkit/internal/textenc"
)

var (
	dumpEncoding string
	dumpData     bool
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().StringVar(&dumpEncoding, "encoding", textenc.Default, "Text encoding of the archive")
	cmd.Flags().BoolVar(&dumpData, "data", false, "Hex dump the data region")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <archive>",
		Short: "Show the raw structure of an archive",
		Long: `The dump command prints an archive's header, internal pointers, text
pointers and labels. No schema is needed.

Example:
  binctl dump data/person.bin
  binctl dump data/person.bin --data
  binctl dump data/person.bin --encoding utf-8 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args)
		},
	}
	return cmd
}

// openArchive reads and parses an archive file.
func openArchive(path, encoding string) (*archive.Archive, format.Header, error) {
	codec, err := textenc.Lookup(encoding)
	if err != nil {
		return nil, format.Header{}, err
	}
	raw, err := mmfile.ReadAll(path)
	if err != nil {
		return nil, format.Header{}, fmt.Errorf("failed to read archive: %w", err)
	}
	h, err := format.ParseHeader(raw)
	if err != nil {
		return nil, format.Header{}, err
	}
	arc, err := archive.FromBytes(raw, archive.WithCodec(codec))
	if err != nil {
		return nil, format.Header{}, err
	}
	return arc, h, nil
}

type dumpPointer struct {
	Addr   int `json:"addr"`
	Target int `json:"target"`
}

type dumpText struct {
	Addr int    `json:"addr"`
	Text string `json:"text"`
}

func runDump(args []string) error {
	path := args[0]
	printVerbose("Opening archive: %s\n", path)

	arc, h, err := openArchive(path, dumpEncoding)
	if err != nil {
		return err
	}

	internal := arc.InternalPointers()
	pointers := make([]dumpPointer, 0, len(internal))
	for _, addr := range slices.Sorted(maps.Keys(internal)) {
		pointers = append(pointers, dumpPointer{Addr: addr, Target: internal[addr]})
	}
	textPtrs := arc.TextPointers()
	texts := make([]dumpText, 0, len(textPtrs))
	for _, addr := range slices.Sorted(maps.Keys(textPtrs)) {
		texts = append(texts, dumpText{Addr: addr, Text: textPtrs[addr]})
	}
	labels := arc.AllLabels()

	if jsonOut {
		return printJSON(map[string]any{
			"archive":  path,
			"size":     h.ArchiveSize,
			"data":     h.DataSize,
			"pointers": pointers,
			"text":     texts,
			"labels":   labels,
		})
	}

	printInfo("Archive: %s\n", path)
	printInfo("  Size: %d bytes (data 0x%x, %d pointers, %d labels)\n",
		h.ArchiveSize, h.DataSize, h.PointerCount, h.MappedCount)

	printInfo("\nPointers (%d):\n", len(pointers))
	for _, p := range pointers {
		printInfo("  0x%06x -> 0x%06x\n", p.Addr, p.Target)
	}
	printInfo("\nText (%d):\n", len(texts))
	for _, t := range texts {
		printInfo("  0x%06x -> %q\n", t.Addr, t.Text)
	}
	printInfo("\nLabels (%d):\n", len(labels))
	for _, l := range labels {
		printInfo("  0x%06x %s\n", l.Addr, l.Name)
	}
	if dumpData {
		printInfo("\nData:\n%s", hex.Dump(arc.Bytes()))
	}
	return nil
}
