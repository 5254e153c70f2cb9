package gamedata

import (
	"context"
	"fmt"
	"slices"

	"github.com/joshuapare/binkit/archive"
	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/internal/catalog"
	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/internal/textenc"
	"github.com/joshuapare/binkit/pkg/types"
	"github.com/joshuapare/binkit/schema"
)

// Loaded describes one store read into the project.
type Loaded struct {
	Binding schema.Store
	Number  types.StoreNumber
	Root    types.RecordID
}

// Options controls project behavior.
type Options struct {
	// Codecs maps the codec names used by store bindings. Identity is
	// always available under "" and "raw".
	Codecs map[string]Codec

	// TextTable is attached to the registry for Message lookups.
	TextTable TextTable

	// OnProgress is called after each store is read or written.
	OnProgress func(current, total int)
}

// Project is a schema registry plus the stores loaded into it.
type Project struct {
	cfg    *Config
	schema *schema.Schema
	types  *engine.Types
	src    Source
	sink   Sink
	opts   Options
	loaded map[string]*Loaded
	order  []string
}

// Open builds a project over an already parsed schema. opts may be nil.
func Open(cfg *Config, sch *schema.Schema, src Source, sink Sink, opts *Options) (*Project, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ts, err := sch.Types()
	if err != nil {
		return nil, fmt.Errorf("build types: %w", err)
	}
	p := &Project{
		cfg:    cfg,
		schema: sch,
		types:  ts,
		src:    src,
		sink:   sink,
		loaded: make(map[string]*Loaded),
	}
	if opts != nil {
		p.opts = *opts
	}
	if p.opts.TextTable != nil {
		ts.SetTextTable(p.opts.TextTable)
	}
	return p, nil
}

// OpenDir reads the schema from cfg.SchemaDir and serves store files from
// cfg.DataDir, saving them under cfg.OutputDir.
func OpenDir(cfg *Config, opts *Options) (*Project, error) {
	sch, err := schema.LoadDir(cfg.SchemaDir)
	if err != nil {
		return nil, err
	}
	return Open(cfg, sch, catalog.NewSource(cfg.DataDir), catalog.NewSink(cfg.OutputDir), opts)
}

// Types returns the project registry.
func (p *Project) Types() *engine.Types { return p.types }

// Schema returns the parsed schema.
func (p *Project) Schema() *schema.Schema { return p.schema }

// Config returns the project configuration.
func (p *Project) Config() *Config { return p.cfg }

// Store returns a loaded store by binding name.
func (p *Project) Store(name string) (*Loaded, error) {
	l, ok := p.loaded[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrNotLoaded)
	}
	return l, nil
}

// Loaded returns the names of the loaded stores in load order.
func (p *Project) Loaded() []string { return slices.Clone(p.order) }

// Load reads the named stores, or every declared store when names is
// empty, and then resolves the references they queued.
func (p *Project) Load(ctx context.Context, names ...string) (engine.ResolveStats, error) {
	bindings, err := p.bindings(names)
	if err != nil {
		return engine.ResolveStats{}, err
	}
	for _, b := range bindings {
		if _, dup := p.loaded[b.Name]; dup {
			return engine.ResolveStats{}, fmt.Errorf("%q: %w", b.Name, ErrAlreadyLoaded)
		}
	}

	// Stores become visible only once every read succeeded; a failure
	// drops what this call read so the stores can be loaded again.
	refs := engine.NewReadReferences()
	read := make([]*Loaded, 0, len(bindings))
	fail := func(err error) (engine.ResolveStats, error) {
		for _, l := range read {
			n := p.types.DeleteStore(l.Number)
			logger.Debug("store discarded", "store", l.Binding.Name, "number", l.Number, "records", n)
		}
		return engine.ResolveStats{}, err
	}
	for i, b := range bindings {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		l, err := p.read(ctx, refs, b)
		if err != nil {
			return fail(fmt.Errorf("load %s: %w", b.Name, err))
		}
		read = append(read, l)
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(i+1, len(bindings))
		}
	}
	for _, l := range read {
		p.loaded[l.Binding.Name] = l
		p.order = append(p.order, l.Binding.Name)
	}

	stats, err := refs.Resolve(p.types, p.cfg.Policy())
	logger.Info("references resolved", "resolved", stats.Resolved, "missed", stats.Missed, "skipped", stats.Skipped)
	return stats, err
}

func (p *Project) read(ctx context.Context, refs *engine.ReadReferences, b schema.Store) (*Loaded, error) {
	codec, err := p.codec(b.Codec)
	if err != nil {
		return nil, err
	}
	text, err := p.textCodec(b)
	if err != nil {
		return nil, err
	}
	raw, err := p.src.Fetch(ctx, b.Path)
	if err != nil {
		return nil, err
	}
	raw, err = codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode container: %w", err)
	}
	arc, err := archive.FromBytes(raw, archive.WithCodec(text))
	if err != nil {
		return nil, err
	}
	num := p.types.AllocateStore()
	root, err := engine.ReadArchive(p.types, refs, arc, num, b.Root)
	if err != nil {
		return nil, types.Frame(err, fmt.Sprintf("store %d", num), "", -1)
	}
	logger.Info("store loaded", "store", b.Name, "path", b.Path, "number", num, "bytes", len(raw))
	return &Loaded{Binding: b, Number: num, Root: root}, nil
}

// Save writes the named loaded stores, or all of them when names is empty.
func (p *Project) Save(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		names = p.order
	}
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		l, err := p.Store(name)
		if err != nil {
			return err
		}
		raw, err := p.Encode(l)
		if err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		if err := p.sink.Store(ctx, l.Binding.Path, raw); err != nil {
			return fmt.Errorf("save %s: %w", name, err)
		}
		logger.Info("store saved", "store", name, "path", l.Binding.Path, "bytes", len(raw))
		if p.opts.OnProgress != nil {
			p.opts.OnProgress(i+1, len(names))
		}
	}
	return nil
}

// Encode serializes a loaded store and wraps it in its container.
func (p *Project) Encode(l *Loaded) ([]byte, error) {
	codec, err := p.codec(l.Binding.Codec)
	if err != nil {
		return nil, err
	}
	text, err := p.textCodec(l.Binding)
	if err != nil {
		return nil, err
	}
	arc, err := engine.WriteArchive(p.types, l.Root, p.cfg.Policy(), archive.WithCodec(text))
	if err != nil {
		return nil, err
	}
	raw, err := arc.Serialize()
	if err != nil {
		return nil, err
	}
	return codec.Encode(raw)
}

func (p *Project) bindings(names []string) ([]schema.Store, error) {
	if len(names) == 0 {
		return slices.Clone(p.schema.Stores), nil
	}
	out := make([]schema.Store, 0, len(names))
	for _, name := range names {
		b, err := p.schema.Store(name)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (p *Project) codec(name string) (Codec, error) {
	if c, ok := p.opts.Codecs[name]; ok {
		return c, nil
	}
	if name == "" || name == "raw" {
		return Identity{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownCodec)
}

func (p *Project) textCodec(b schema.Store) (*textenc.Codec, error) {
	name := b.Encoding
	if name == "" {
		name = p.cfg.Encoding
	}
	return textenc.Lookup(name)
}
