package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"plotbench/internal/common/fsutil"
	"plotbench/internal/prompts"
	"plotbench/internal/registry"
)

func newModelsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List catalog models and whether their file is present",
		RunE: func(cmd *cobra.Command, args []string) error {
			list := a.reg.List()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFILE\tVRAM_GB\tCONTEXT\tPRESENT")
			for _, m := range list {
				present := "no"
				if fsutil.FileExists(registry.ModelPath(a.cfg.ModelsDir, m)) {
					present = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", m.ID, m.File, m.VRAMEstimateGB, m.ContextSize, present)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func newSanityCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sanity",
		Short: "Check that llama-server and the models directory are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			rep := a.supervisor().SanityCheck()
			out := cmd.OutOrStdout()
			mark := func(ok bool) string {
				if ok {
					return "ok"
				}
				return "MISSING"
			}
			fmt.Fprintf(out, "llama-server: %s %s\n", mark(rep.LlamaFound), rep.LlamaPath)
			fmt.Fprintf(out, "models dir:   %s %s\n", mark(rep.ModelsDirFound), rep.ModelsDir)
			fmt.Fprintf(out, "available:    %s\n", strings.Join(rep.AvailableModels, ", "))
			if len(rep.MissingModels) > 0 {
				fmt.Fprintf(out, "missing:      %s\n", strings.Join(rep.MissingModels, ", "))
			}
			if rep.Error != "" {
				return fmt.Errorf("sanity check failed: %s", rep.Error)
			}
			return nil
		},
	}
}

func newPromptCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Inspect or initialise the system prompt configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("prompt requires a subcommand: show|init")
		},
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the configured prompts and their thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.scheduler()
			out := cmd.OutOrStdout()
			for i, e := range s.Entries() {
				fmt.Fprintf(out, "[%d] until %d interactions: %s\n", i, e.Count, e.Content)
			}
			fmt.Fprintf(out, "current: %s\n", s.CurrentPrompt())
			return nil
		},
	}
	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default prompt configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.PromptsFile
			if len(args) == 1 {
				path = args[0]
			}
			if fsutil.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := prompts.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(show, initCmd)
	return cmd
}
