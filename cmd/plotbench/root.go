package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"plotbench/internal/config"
	"plotbench/internal/prompts"
	"plotbench/internal/registry"
	"plotbench/internal/supervisor"
)

// app is the state shared by every subcommand once the root pre-run has
// resolved configuration.
type app struct {
	cfg config.Config
	reg *registry.Registry
	log zerolog.Logger

	configPath string
	envFile    string
	logLevel   string
	logFormat  string
	modelsDir  string
	llamaBin   string
	port       int
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "plotbench",
		Short:         "Supervise a local llama-server and benchmark models for creative writing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd, cmd.ErrOrStderr())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "Environment file loaded before reading PLOTBENCH_* variables")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error (defaults PLOTBENCH_LOG_LEVEL or info)")
	pf.StringVar(&a.logFormat, "log-format", "", "Log format: console|json")
	pf.StringVar(&a.modelsDir, "models-dir", "", "Directory holding the model files")
	pf.StringVar(&a.llamaBin, "llama-bin", "", "llama-server binary name or path")
	pf.IntVar(&a.port, "port", 0, "Default port for llama-server")

	root.AddCommand(
		newServeCmd(a),
		newStartCmd(a),
		newBenchCmd(a),
		newExportCmd(a),
		newPromptCmd(a),
		newModelsCmd(a),
		newSanityCmd(a),
	)
	return root
}

// load layers configuration: file, then environment, then flags, then
// defaults.
func (a *app) load(cmd *cobra.Command, logOut io.Writer) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	var cfg config.Config
	if a.configPath != "" {
		c, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = c
	}
	cfg = cfg.ApplyEnv()
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.LogFormat = a.logFormat
	}
	if a.modelsDir != "" {
		cfg.ModelsDir = a.modelsDir
	}
	if a.llamaBin != "" {
		cfg.LlamaBin = a.llamaBin
	}
	if a.port > 0 {
		cfg.Port = a.port
	}
	a.cfg = cfg.WithDefaults()

	log, err := newLogger(logOut, a.cfg.LogLevel, a.cfg.LogFormat)
	if err != nil {
		return err
	}
	a.log = log

	a.reg = registry.Builtin()
	if a.cfg.CatalogFile != "" {
		extra, err := registry.LoadCatalog(a.cfg.CatalogFile)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		a.reg = a.reg.Merge(extra...)
	}
	return nil
}

func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch format {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

func (a *app) supervisor() *supervisor.Supervisor {
	return supervisor.New(supervisor.FromConfig(a.cfg, a.reg), supervisor.WithLogger(a.log))
}

func (a *app) scheduler() *prompts.Scheduler {
	return prompts.Load(a.cfg.PromptsFile, a.log)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
