package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"llmserver/internal/config"
	"llmserver/internal/engine"
	"llmserver/internal/httpapi"
	"llmserver/internal/provision"
	"llmserver/internal/registry"
	"llmserver/internal/server"
)

var errNoModelID = errors.New("no model id: pass one as an argument, --provision-model or LLMSERVER_PROVISION_MODEL")

func runServe(cmd *cobra.Command, o *cliOptions, getenv func(string) string) error {
	cfg, err := resolveConfig(o, getenv)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, o.logFormat)
	if err != nil {
		return err
	}
	installLogger(log)

	store, err := registry.New(cfg.ModelsDir)
	if err != nil {
		return err
	}
	if models, err := store.Scan(); err != nil {
		log.Warn().Err(err).Str("dir", store.Dir()).Msg("scan models dir")
	} else {
		log.Info().Str("dir", store.Dir()).Int("models", len(models)).Bool("llama", engine.LlamaAvailable()).Msg("models dir scanned")
	}

	eng := engine.New(engine.Config{
		Adapter:       engine.NewLlamaAdapter(cfg.ContextSize, cfg.Threads),
		Resolver:      store,
		Params:        engine.Params{MaxTokens: cfg.MaxTokens},
		MaxConcurrent: cfg.MaxConcurrent,
		Diagnostics:   cmd.OutOrStdout(),
	})

	var configs config.ConfigProvider = config.NewFileModelConfig(cfg.ModelConfig)
	if o.model != "" {
		configs = config.StaticModelConfig{ModelName: o.model}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)
	mux := httpapi.NewMux(httpapi.Deps{
		Configs:       configs,
		Engine:        eng,
		BuildMetadata: cfg.BuildMetadata,
	})

	opts := server.Options{
		Addr:       cfg.Addr,
		Handler:    mux,
		ModelID:    cfg.Provision.ModelID,
		Credential: cfg.Provision.Token,
	}
	if cfg.Provision.ModelID != "" {
		opts.Provisioner = newProvisioner(store, cfg)
	}
	return server.Run(ctx, opts)
}

func runProvision(cmd *cobra.Command, o *cliOptions, getenv func(string) string) error {
	cfg, err := resolveConfig(o, getenv)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, o.logFormat)
	if err != nil {
		return err
	}
	installLogger(log)
	if cfg.Provision.ModelID == "" {
		return errNoModelID
	}
	store, err := registry.New(cfg.ModelsDir)
	if err != nil {
		return err
	}
	return newProvisioner(store, cfg).EnsurePresent(cmd.Context(), cfg.Provision.ModelID, cfg.Provision.Token)
}

func newProvisioner(store *registry.Store, cfg config.Config) *provision.Provisioner {
	return provision.New(store, provision.Options{
		RegistryURL: cfg.Provision.RegistryURL,
		Revision:    cfg.Provision.Revision,
		File:        cfg.Provision.File,
		Force:       cfg.Provision.Force,
	})
}
