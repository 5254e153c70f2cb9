package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/internal/mmfile"
	"github.com/joshuapare/binkit/internal/textenc"
	"github.com/joshuapare/binkit/internal/writer"
	"github.com/joshuapare/binkit/schema"
)

var (
	roundtripEncoding string
	roundtripSchema   string
	roundtripType     string
	roundtripOut      string
)

func init() {
	cmd := newRoundtripCmd()
	cmd.Flags().StringVar(&roundtripEncoding, "encoding", textenc.Default, "Text encoding of the archive")
	cmd.Flags().StringVar(&roundtripSchema, "schema", "", "Schema directory; decode records instead of copying raw structure")
	cmd.Flags().StringVar(&roundtripType, "type", "", "Root type of the archive (with --schema)")
	cmd.Flags().StringVarP(&roundtripOut, "output", "o", "", "Write the re-encoded archive here")
	rootCmd.AddCommand(cmd)
}

func newRoundtripCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <archive>",
		Short: "Re-encode an archive and compare it with the original",
		Long: `The roundtrip command parses an archive, serializes it again and reports
whether the result is byte-identical. With --schema and --type the records
are decoded and re-encoded through the schema.

Example:
  binctl roundtrip data/person.bin
  binctl roundtrip data/person.bin --schema schema --type PersonFile -o /tmp/p.bin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundtrip(args)
		},
	}
}

type roundtripResult struct {
	Archive   string `json:"archive"`
	Identical bool   `json:"identical"`
	Original  int    `json:"original_size"`
	Rewritten int    `json:"rewritten_size"`
	// FirstDiff is the first differing file offset, -1 when identical.
	FirstDiff int `json:"first_diff"`
}

func runRoundtrip(args []string) error {
	path := args[0]
	codec, err := textenc.Lookup(roundtripEncoding)
	if err != nil {
		return err
	}
	raw, err := mmfile.ReadAll(path)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}
	arc, err := archive.FromBytes(raw, archive.WithCodec(codec))
	if err != nil {
		return err
	}

	if roundtripSchema != "" {
		if roundtripType == "" {
			return fmt.Errorf("--type is required with --schema")
		}
		arc, err = reencode(arc, codec)
		if err != nil {
			return err
		}
	}

	out, err := arc.Serialize()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	res := roundtripResult{
		Archive:   path,
		Identical: bytes.Equal(raw, out),
		Original:  len(raw),
		Rewritten: len(out),
		FirstDiff: firstDiff(raw, out),
	}

	if roundtripOut != "" {
		w := &writer.FileWriter{Path: roundtripOut}
		if err := w.WriteArchive(out); err != nil {
			return err
		}
		printVerbose("Wrote %s\n", roundtripOut)
	}

	if jsonOut {
		return printJSON(res)
	}
	if res.Identical {
		printInfo("%s: identical (%d bytes)\n", path, len(raw))
	} else {
		printInfo("%s: differs at 0x%x (%d -> %d bytes)\n", path, res.FirstDiff, res.Original, res.Rewritten)
	}
	return nil
}

// reencode decodes arc through the schema and writes the records back.
func reencode(arc *archive.Archive, codec *textenc.Codec) (*archive.Archive, error) {
	sch, err := schema.LoadDir(roundtripSchema)
	if err != nil {
		return nil, err
	}
	ts, err := sch.Types()
	if err != nil {
		return nil, err
	}
	refs := engine.NewReadReferences()
	root, err := engine.ReadArchive(ts, refs, arc, ts.AllocateStore(), roundtripType)
	if err != nil {
		return nil, err
	}
	stats, err := refs.Resolve(ts, engine.Policy{})
	if err != nil {
		return nil, err
	}
	printVerbose("Decoded %d records, %d references (%d missed)\n", ts.Len(), stats.Resolved, stats.Missed)
	return engine.WriteArchive(ts, root, engine.Policy{}, archive.WithCodec(codec))
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
