package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/binkit/internal/textenc"
)

var (
	labelsPrefix   string
	labelsEncoding string
)

func init() {
	cmd := newLabelsCmd()
	cmd.Flags().StringVar(&labelsPrefix, "prefix", "", "Only labels starting with prefix")
	cmd.Flags().StringVar(&labelsEncoding, "encoding", textenc.Default, "Text encoding of the archive")
	rootCmd.AddCommand(cmd)
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <archive>",
		Short: "List the labels of an archive by address",
		Long: `The labels command lists every label of an archive ordered by address.

Example:
  binctl labels data/person.bin
  binctl labels data/person.bin --prefix PID_`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLabels(args)
		},
	}
}

func runLabels(args []string) error {
	arc, _, err := openArchive(args[0], labelsEncoding)
	if err != nil {
		return err
	}
	labels := arc.LabelsWithPrefix(labelsPrefix)
	if jsonOut {
		return printJSON(labels)
	}
	for _, l := range labels {
		printInfo("0x%06x %s\n", l.Addr, l.Name)
	}
	printVerbose("%d labels\n", len(labels))
	return nil
}
