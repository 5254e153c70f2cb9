package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Store binds a named store to the file it is read from and its root type.
type Store struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	Root string `yaml:"root"`
	// Encoding overrides the project text encoding for this store.
	Encoding string `yaml:"encoding,omitempty"`
	// Codec names the container codec; empty means raw.
	Codec string `yaml:"codec,omitempty"`
}

type header struct {
	Kind string `yaml:"kind"`
}

type typeDoc struct {
	Name         string     `yaml:"name"`
	Size         int        `yaml:"size"`
	Key          string     `yaml:"key"`
	Display      string     `yaml:"display"`
	Icon         string     `yaml:"icon"`
	Index        string     `yaml:"index"`
	CopyExcluded []string   `yaml:"copy_excluded"`
	Node         *nodeDoc   `yaml:"node"`
	Fields       []fieldDoc `yaml:"fields"`
}

type nodeDoc struct {
	Label    string   `yaml:"label"`
	Children []string `yaml:"children"`
}

type fieldDoc struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`

	// int, bool
	Format    string    `yaml:"format"`
	Default   yaml.Node `yaml:"default"`
	Condition string    `yaml:"condition"`
	SkipWrite bool      `yaml:"skip_write"`

	// bytes, inline string
	Size      int           `yaml:"size"`
	Transform *transformDoc `yaml:"transform"`

	// label, message
	Index     int    `yaml:"index"`
	Path      string `yaml:"path"`
	Localized bool   `yaml:"localized"`

	// record, list, reference
	Type      string     `yaml:"type"`
	Placement *optionDoc `yaml:"placement"`
	Count     *optionDoc `yaml:"count"`
	Table     string     `yaml:"table"`
	Ref       *optionDoc `yaml:"ref"`

	Variants []fieldDoc `yaml:"variants"`

	line int
}

// UnmarshalYAML records the source line for error messages.
func (f *fieldDoc) UnmarshalYAML(node *yaml.Node) error {
	type plain fieldDoc
	if err := node.Decode((*plain)(f)); err != nil {
		return err
	}
	f.line = node.Line
	return nil
}

type transformDoc struct {
	Type   string   `yaml:"type"`
	Key    []byte   `yaml:"key"`
	Tables []string `yaml:"tables"`
}

// optionDoc is the parameter bag shared by placements, list counts and
// reference formats. Unused keys are ignored by the variant built from it.
type optionDoc struct {
	Type string `yaml:"type"`

	Flag          string `yaml:"flag"`
	DeferWrite    bool   `yaml:"defer_write"`
	DeferToParent bool   `yaml:"defer_to_parent"`
	Label         string `yaml:"label"`
	Offset        int    `yaml:"offset"`

	Count      int    `yaml:"count"`
	Index      int    `yaml:"index"`
	Format     string `yaml:"format"`
	Doubled    bool   `yaml:"doubled"`
	StepSize   int    `yaml:"step_size"`
	SkipFirst  bool   `yaml:"skip_first"`
	Peek       int    `yaml:"peek"`
	Divisor    int    `yaml:"divisor"`
	Prefix     string `yaml:"prefix"`
	StartIndex int    `yaml:"start_index"`

	Field string `yaml:"field"`
	Null  *int64 `yaml:"null"`
}

// UnmarshalYAML accepts a bare variant name as shorthand for {type: name}.
func (o *optionDoc) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		o.Type = node.Value
		return nil
	case yaml.MappingNode:
		type plain optionDoc
		return node.Decode((*plain)(o))
	default:
		return fmt.Errorf("line %d: option must be a name or a mapping: %w", node.Line, ErrInvalid)
	}
}
