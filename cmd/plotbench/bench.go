package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"plotbench/internal/bench"
	"plotbench/internal/registry"
)

func newBenchCmd(a *app) *cobra.Command {
	var (
		models    []string
		outputDir string
		pause     time.Duration
		noPrompts bool
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the creative writing scenarios against each model and write a comparison report",
		Example: "  plotbench bench\n" +
			"  plotbench bench --models venice,qwq_planet --output-dir results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputDir == "" {
				outputDir = a.cfg.OutputDir
			}
			selected, err := selectModels(a.reg, a.cfg.ModelsDir, models)
			if err != nil {
				return err
			}
			for _, id := range unavailable(a.reg, a.cfg.ModelsDir) {
				a.log.Warn().Str("model", id).Msg("model file missing, skipped")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			r := &bench.Runner{
				Server: a.supervisor(),
				Port:   a.cfg.Port,
				Pause:  pause,
				Log:    a.log,
			}
			if !noPrompts {
				r.Prompts = a.scheduler()
			}
			a.log.Info().Strs("models", selected).Int("vram_budget_gb", a.cfg.VRAMBudgetGB).Msg("testing models")
			results := r.Run(ctx, selected)

			report, details, err := bench.WriteReport(outputDir, results, time.Now(), a.cfg.VRAMBudgetGB)
			if err != nil {
				return err
			}
			completed := 0
			for _, res := range results {
				if res.Status == bench.StatusCompleted {
					completed++
				}
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Successfully tested: %d/%d models\n", completed, len(selected))
			fmt.Fprintf(out, "Report:   %s\nDetailed: %s\n", report, details)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&models, "models", []string{"all"}, "Models to test, or all")
	f.StringVar(&outputDir, "output-dir", "", "Output directory for results (defaults comparison_results)")
	f.DurationVar(&pause, "pause", 10*time.Second, "Pause between models")
	f.BoolVar(&noPrompts, "no-system-prompt", false, "Do not send the scheduler's system prompt")
	return cmd
}

// selectModels resolves the requested ids against the models whose file is
// present. "all" selects every available model.
func selectModels(reg *registry.Registry, modelsDir string, requested []string) ([]string, error) {
	avail, _ := reg.Available(modelsDir)
	if len(avail) == 0 {
		return nil, errors.New("no model files found in " + modelsDir)
	}
	present := make(map[string]bool, len(avail))
	var all []string
	for _, m := range avail {
		present[m.ID] = true
		all = append(all, m.ID)
	}
	var out []string
	for _, id := range requested {
		if id == "all" {
			return all, nil
		}
		if present[id] {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no valid models selected")
	}
	return out, nil
}

func unavailable(reg *registry.Registry, modelsDir string) []string {
	_, missing := reg.Available(modelsDir)
	return missing
}

func newExportCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:     "export <detailed_results.json>",
		Short:   "Convert detailed benchmark results to Markdown",
		Example: "  plotbench export comparison_results/detailed_results.json",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.cfg.OutputDir
			}
			in := filepath.Join(a.cfg.OutputDir, "detailed_results.json")
			if len(args) == 1 {
				in = args[0]
			}
			path, err := bench.ExportFile(in, outDir, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "output-dir", "", "Directory for the Markdown file (defaults comparison_results)")
	return cmd
}
