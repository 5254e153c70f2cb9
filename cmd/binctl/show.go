package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/pkg/types"
)

var showDepth int

func init() {
	cmd := newShowCmd()
	cmd.Flags().IntVar(&showDepth, "depth", 2, "Maximum record depth (0 = root fields only)")
	rootCmd.AddCommand(cmd)
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <store>",
		Short: "Print the decoded records of a store",
		Long: `The show command loads the whole project, so references into other
stores resolve, and prints the record tree of one store.

Example:
  binctl show items
  binctl show items --depth 4 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), args)
		},
	}
}

// recordNode is one record or field of the printed tree.
type recordNode struct {
	Field    string       `json:"field,omitempty"`
	Type     string       `json:"type,omitempty"`
	ID       string       `json:"id,omitempty"`
	Value    any          `json:"value"`
	Children []recordNode `json:"children,omitempty"`
}

func runShow(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := openProject()
	if err != nil {
		return err
	}
	if _, err := p.Load(ctx); err != nil {
		return err
	}
	l, err := p.Store(args[0])
	if err != nil {
		return err
	}
	root, err := describeRecord(p.Types(), l.Root, showDepth)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(root)
	}
	printTree(root, 0)
	return nil
}

func describeRecord(ts *engine.Types, rid types.RecordID, depth int) (recordNode, error) {
	rec, err := ts.Record(rid)
	if err != nil {
		return recordNode{}, err
	}
	n := recordNode{Type: rec.Typename(), ID: rid.String()}
	for _, f := range rec.Fields() {
		c, err := describeField(ts, rid, f, depth)
		if err != nil {
			return recordNode{}, types.Frame(err, rec.Typename(), f.ID(), -1)
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

func describeField(ts *engine.Types, owner types.RecordID, f engine.Field, depth int) (recordNode, error) {
	n := recordNode{Field: f.ID()}
	switch v := f.(type) {
	case *engine.BoolField:
		n.Value = v.Value()
	case *engine.IntField:
		n.Value = v.Value()
	case *engine.FloatField:
		n.Value = v.Value()
	case *engine.StringField:
		n.Value = v.Value()
	case *engine.LabelField:
		n.Value = v.Value()
	case *engine.MessageField:
		n.Value = v.Value()
		if text, err := ts.MessageText(owner, f.ID()); err == nil && text != "" {
			n.Value = fmt.Sprintf("%s (%s)", v.Value(), text)
		}
	case *engine.BytesField:
		n.Value = hex.EncodeToString(v.Value())
	case *engine.ReferenceField:
		n.Value = refLabel(ts, v.Value())
	case *engine.RecordField:
		if v.Value().IsNull() {
			n.Value = "null"
			break
		}
		if depth <= 0 {
			n.Value = refLabel(ts, v.Value())
			break
		}
		c, err := describeRecord(ts, v.Value(), depth-1)
		if err != nil {
			return n, err
		}
		n.Children = []recordNode{c}
	case *engine.ListField:
		if depth <= 0 {
			n.Value = fmt.Sprintf("%d items", v.Len())
			break
		}
		for _, item := range v.Items() {
			c, err := describeRecord(ts, item, depth-1)
			if err != nil {
				return n, err
			}
			n.Children = append(n.Children, c)
		}
	case *engine.UnionField:
		active := v.Active()
		if active == nil {
			n.Value = "unset"
			break
		}
		c, err := describeField(ts, owner, active, depth)
		if err != nil {
			return n, err
		}
		c.Field = fmt.Sprintf("%s[%d]", f.ID(), v.ActiveIndex())
		return c, nil
	}
	return n, nil
}

func refLabel(ts *engine.Types, rid types.RecordID) string {
	if rid.IsNull() {
		return "null"
	}
	name, err := ts.DisplayName(rid)
	if err != nil {
		return rid.String() + " (dangling)"
	}
	return fmt.Sprintf("-> %s [%s]", name, rid)
}

func printTree(n recordNode, indent int) {
	pad := strings.Repeat("  ", indent)
	switch {
	case n.Type != "" && n.Field != "":
		printInfo("%s%s: %s %s\n", pad, n.Field, n.Type, n.ID)
	case n.Type != "":
		printInfo("%s%s %s\n", pad, n.Type, n.ID)
	case n.Value != nil:
		printInfo("%s%s = %v\n", pad, n.Field, n.Value)
	default:
		printInfo("%s%s:\n", pad, n.Field)
	}
	for _, c := range n.Children {
		printTree(c, indent+1)
	}
}
