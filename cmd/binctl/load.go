package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/joshuapare/binkit/engine"
	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/gamedata"
)

var loadSave bool

func init() {
	cmd := newLoadCmd()
	cmd.Flags().BoolVar(&loadSave, "save", false, "Write every loaded store to the output directory")
	rootCmd.AddCommand(cmd)
}

func newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [store...]",
		Short: "Load project stores and resolve their references",
		Long: `The load command reads the project file, loads the named stores (all
stores when none are named), resolves references between them and prints a
summary. With --save the stores are written to the output directory.

Example:
  binctl load
  binctl load items characters --json
  binctl -c game/binkit.yaml load --save`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd.Context(), args)
		},
	}
}

// openProject loads the project file and its schema.
func openProject() (*gamedata.Project, error) {
	cfg, err := gamedata.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if !verbose && !quiet {
		if err := logger.Init(logger.Options{Enabled: true, Level: logger.ParseLevel(cfg.Logging.Level)}); err != nil {
			return nil, err
		}
	}
	printVerbose("Project: %s\n", configPath)
	return gamedata.OpenDir(cfg, &gamedata.Options{
		OnProgress: func(cur, total int) { printVerbose("  %d/%d\n", cur, total) },
	})
}

type storeSummary struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Number  uint32 `json:"number"`
	Records int    `json:"records"`
}

type loadSummary struct {
	Stores     []storeSummary      `json:"stores"`
	References engine.ResolveStats `json:"references"`
	Saved      bool                `json:"saved"`
}

func runLoad(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p, err := openProject()
	if err != nil {
		return err
	}
	stats, err := p.Load(ctx, args...)
	if err != nil {
		return err
	}

	sum := loadSummary{References: stats}
	for _, name := range p.Loaded() {
		l, err := p.Store(name)
		if err != nil {
			return err
		}
		sum.Stores = append(sum.Stores, storeSummary{
			Name:    name,
			Path:    l.Binding.Path,
			Number:  uint32(l.Number),
			Records: len(p.Types().Instances(l.Number)),
		})
	}
	if loadSave {
		if err := p.Save(ctx); err != nil {
			return err
		}
		sum.Saved = true
	}

	if jsonOut {
		return printJSON(sum)
	}
	for _, s := range sum.Stores {
		printInfo("%-20s store %-3d %6d records  %s\n", s.Name, s.Number, s.Records, s.Path)
	}
	printInfo("references: %d resolved, %d missed, %d skipped\n",
		stats.Resolved, stats.Missed, stats.Skipped)
	if sum.Saved {
		printInfo("saved %d stores to %s\n", len(sum.Stores), p.Config().OutputDir)
	}
	return nil
}
