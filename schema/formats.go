package schema

import (
	"fmt"

	"github.com/joshuapare/binkit/engine"
)

func buildPlacement(o *optionDoc) (engine.Placement, error) {
	if o == nil {
		return nil, nil
	}
	switch o.Type {
	case "", "inline":
		return engine.Inline{}, nil
	case "conditional_inline":
		if o.Flag == "" {
			return nil, fmt.Errorf("conditional_inline without flag: %w", ErrInvalid)
		}
		return engine.ConditionalInline{Flag: o.Flag}, nil
	case "inline_pointer":
		return engine.InlinePointer{}, nil
	case "pointer":
		return engine.Pointer{DeferWrite: o.DeferWrite, DeferToParent: o.DeferToParent}, nil
	case "shared_pointer":
		return engine.SharedPointer{DeferWrite: o.DeferWrite, DeferToParent: o.DeferToParent}, nil
	case "label_append":
		if o.Label == "" {
			return nil, fmt.Errorf("label_append without label: %w", ErrInvalid)
		}
		return engine.LabelAppend{Label: o.Label, Offset: o.Offset}, nil
	case "append":
		return engine.Append{}, nil
	}
	return nil, fmt.Errorf("placement %q: %w", o.Type, ErrUnknownOption)
}

func buildCount(o *optionDoc) (engine.ListFormat, error) {
	if o == nil {
		return nil, fmt.Errorf("list without count: %w", ErrInvalid)
	}
	switch o.Type {
	case "static":
		return engine.Static{Count: o.Count}, nil
	case "indirect":
		f := engine.U32
		if err := parseFormat(o.Format, &f); err != nil {
			return nil, err
		}
		return engine.Indirect{Index: o.Index, Offset: o.Offset, Format: f, Doubled: o.Doubled}, nil
	case "postfix_count":
		return engine.PostfixCount{Label: o.Label}, nil
	case "label_or_dest_terminated":
		return engine.LabelOrDestTerminated{StepSize: o.StepSize, SkipFirst: o.SkipFirst}, nil
	case "fates_ai":
		return engine.FatesAI{}, nil
	case "null_terminated":
		return engine.NullTerminated{Peek: o.Peek, StepSize: o.StepSize}, nil
	case "all_remaining":
		return engine.AllRemaining{Divisor: o.Divisor}, nil
	case "count_incoming_pointers_until_label":
		if o.Label == "" {
			return nil, fmt.Errorf("%s without label: %w", o.Type, ErrInvalid)
		}
		return engine.CountIncomingPointersUntilLabel{Label: o.Label}, nil
	case "fake":
		return engine.Fake{}, nil
	case "from_labels":
		return engine.FromLabels{Prefix: o.Prefix}, nil
	case "from_labels_indexed":
		return engine.FromLabelsIndexed{StartIndex: o.StartIndex}, nil
	}
	return nil, fmt.Errorf("count %q: %w", o.Type, ErrUnknownOption)
}

func buildRef(o *optionDoc) (engine.RefFormat, error) {
	if o == nil {
		return nil, nil
	}
	switch o.Type {
	case "", "pointer":
		return engine.ByPointer{}, nil
	case "key":
		return engine.ByKey{Prefix: o.Prefix}, nil
	case "index":
		f, null, err := refInt(o)
		if err != nil {
			return nil, err
		}
		return engine.ByIndex{Format: f, Null: null}, nil
	case "field":
		if o.Field == "" {
			return nil, fmt.Errorf("field ref without field: %w", ErrInvalid)
		}
		f, null, err := refInt(o)
		if err != nil {
			return nil, err
		}
		return engine.ByField{Field: o.Field, Format: f, Null: null}, nil
	}
	return nil, fmt.Errorf("ref %q: %w", o.Type, ErrUnknownOption)
}

// refInt parses the storage format of an integer reference and its null
// value. Without an explicit null, signed formats use -1 and unsigned
// formats their maximum.
func refInt(o *optionDoc) (engine.IntFormat, int64, error) {
	f := engine.I32
	if err := parseFormat(o.Format, &f); err != nil {
		return 0, 0, err
	}
	lo, hi := f.Range()
	if o.Null != nil {
		if *o.Null < lo || *o.Null > hi {
			return 0, 0, fmt.Errorf("null %d outside %s: %w", *o.Null, f, ErrInvalid)
		}
		return f, *o.Null, nil
	}
	if lo < 0 {
		return f, -1, nil
	}
	return f, hi, nil
}
