package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmserver/internal/buildinfo"
	"llmserver/internal/config"
	"llmserver/internal/engine"
	"llmserver/internal/httpapi"
	"llmserver/internal/provision"
	"llmserver/internal/registry"
	"llmserver/internal/server"
)

// cliOptions collects flag values. over holds only explicitly set values, so
// merging it last gives flags the highest precedence.
type cliOptions struct {
	configPath string
	logFormat  string
	model      string
	over       config.Config
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&cliOptions{}, os.Getenv) }

// newRootCmdWith builds the command tree. getenv feeds LLMSERVER_* overrides.
func newRootCmdWith(o *cliOptions, getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:           "llmserver",
		Short:         "Serve a local LLM over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o, getenv)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", getenv("LLMSERVER_CONFIG"), "Path to a YAML/JSON/TOML config file")
	pf.StringVar(&o.over.ModelsDir, "models-dir", "", "Directory holding model files (default \"models\")")
	pf.StringVar(&o.over.LogLevel, "log-level", "", "Log level: debug|info|warn|error (default \"info\")")
	pf.StringVar(&o.logFormat, "log-format", envOr(getenv, "LLMSERVER_LOG_FORMAT", "json"), "Log output: json|console")
	pf.StringVar(&o.over.BuildMetadata, "build-metadata", "", "TOML file with a [package] table served by /api/app/version (default \"build.toml\")")
	pf.StringVar(&o.over.Provision.ModelID, "provision-model", "", "Registry model id fetched at startup, e.g. org/name (empty disables)")
	pf.StringVar(&o.over.Provision.File, "provision-file", "", "Artifact file fetched from the model repository (default \"config.json\")")
	pf.StringVar(&o.over.Provision.Revision, "revision", "", "Registry revision (default \"main\")")
	pf.StringVar(&o.over.Provision.RegistryURL, "registry-url", "", "Model registry base URL (default \"https://huggingface.co\")")
	pf.BoolVar(&o.over.Provision.Force, "force", false, "Download even when a local copy exists")

	f := root.Flags()
	addServeFlags(f.StringVar, f.IntVar, f.Int64Var, f.StringSliceVar, o)

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Provision the model and start the HTTP server",
		Example: "  llmserver serve --addr :8088 --provision-model rustformers/redpajama-3b-ggml",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, o, getenv)
		},
	}
	sf := serveCmd.Flags()
	addServeFlags(sf.StringVar, sf.IntVar, sf.Int64Var, sf.StringSliceVar, o)

	provisionCmd := &cobra.Command{
		Use:   "provision [model-id]",
		Short: "Fetch the model artifact and exit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				o.over.Provision.ModelID = args[0]
			}
			return runProvision(cmd, o, getenv)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print build metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(o, getenv)
			if err != nil {
				return err
			}
			info, err := buildinfo.Read(cfg.BuildMetadata)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.String())
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List model files in the models directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(o, getenv)
			if err != nil {
				return err
			}
			store, err := registry.New(cfg.ModelsDir)
			if err != nil {
				return err
			}
			models, err := store.Scan()
			if err != nil {
				return err
			}
			for _, m := range models {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", m.ID, m.SizeBytes)
			}
			return nil
		},
	}

	root.AddCommand(serveCmd, provisionCmd, versionCmd, modelsCmd)
	return root
}

// addServeFlags registers the flags shared by the root command and serve.
func addServeFlags(
	str func(*string, string, string, string),
	num func(*int, string, int, string),
	num64 func(*int64, string, int64, string),
	list func(*[]string, string, []string, string),
	o *cliOptions,
) {
	str(&o.over.Addr, "addr", "", "HTTP listen address (default \":8088\")")
	str(&o.over.ModelConfig, "model-config", "", "JSON file naming the model, re-read per request (default \"config.json\")")
	str(&o.model, "model", "", "Fixed model name; overrides --model-config")
	num(&o.over.MaxTokens, "max-tokens", 0, "Generation bound in tokens (default 140)")
	num(&o.over.Threads, "threads", 0, "Inference threads (0=backend default)")
	num(&o.over.ContextSize, "ctx-size", 0, "Model context size (0=backend default)")
	num(&o.over.MaxConcurrent, "max-concurrent", 0, "Simultaneous generations (default 1)")
	num64(&o.over.MaxBodyBytes, "max-body-bytes", 0, "Cap on /api/chat request bodies (0=unlimited)")
	list(&o.over.CORSAllowedOrigins, "cors-origins", nil, "Allowed CORS origins; enables CORS when set")
}

// resolveConfig applies defaults < config file < environment < flags.
func resolveConfig(o *cliOptions, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		fc, err := config.Load(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg.Merge(fc)
	}
	cfg.Merge(config.FromEnv(getenv))
	over := o.over
	if len(over.CORSAllowedOrigins) > 0 {
		over.CORSEnabled = true
	}
	cfg.Merge(over)
	return cfg, nil
}

// newLogger builds the process logger. format is json or console.
func newLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(format) {
	case "", "json":
	case "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// installLogger hands the logger to every package that logs.
func installLogger(l zerolog.Logger) {
	httpapi.SetLogger(l)
	engine.SetLogger(l)
	provision.SetLogger(l)
	server.SetLogger(l)
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
