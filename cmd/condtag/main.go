package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/neurodesk/condtag/pkg/config"
	"github.com/neurodesk/condtag/pkg/interp"
	"github.com/neurodesk/condtag/pkg/source"
	"github.com/spf13/cobra"
)

var (
	rootConfig string
	verbose    bool
	varsFiles  []string
	setVars    []string
	async      bool
)

var rootCmd = cobra.Command{
	Use:           "condtag",
	Short:         "Render templates with conditional blocks",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var renderCmd = cobra.Command{
	Use:   "render TEMPLATE",
	Short: "Render a template to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		tpl, err := env.template(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		vars, err := env.vars()
		if err != nil {
			return err
		}

		var out string
		if async || env.cfg.Mode == config.ModeAsync {
			out, err = tpl.RenderAsync(cmd.Context(), vars)
		} else {
			out, err = tpl.Render(vars)
		}
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	},
}

var checkCmd = cobra.Command{
	Use:   "check TEMPLATE...",
	Short: "Check templates for placeholder syntax errors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		var failed int
		for _, ref := range args {
			if _, err := env.template(cmd.Context(), ref); err != nil {
				slog.Error("check failed", "template", ref, "error", err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", ref)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d templates failed", failed, len(args))
		}
		return nil
	},
}

var tokensCmd = cobra.Command{
	Use:   "tokens TEMPLATE",
	Short: "List the text and placeholder fragments of a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd)
		if err != nil {
			return err
		}
		tpl, err := env.template(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		texts, exprs := tpl.Texts(), tpl.Exprs()
		for i, text := range texts {
			fmt.Fprintf(w, "text  %q\n", text)
			if i < len(exprs) {
				e := exprs[i]
				fmt.Fprintf(w, "expr  %d:%d %s\n", e.Line, e.Col, e.Src)
			}
		}
		return nil
	},
}

// environment is what every command needs once flags are parsed.
type environment struct {
	cfg    config.Config
	loader *source.Loader
}

func setup(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(rootConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cache := source.NewCache(cfg.CacheDir)
	cache.Logger = logger
	return &environment{
		cfg: cfg,
		loader: &source.Loader{
			Cache:  cache,
			Stdin:  cmd.InOrStdin(),
			Logger: logger,
		},
	}, nil
}

func (e *environment) template(ctx context.Context, ref string) (*interp.Template, error) {
	src, err := e.loader.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}
	return interp.Parse(ref, string(src))
}

// vars layers config vars, then --vars files, then --set assignments.
func (e *environment) vars() (map[string]any, error) {
	layers := []map[string]any{e.cfg.Vars}
	for _, path := range varsFiles {
		v, err := config.LoadVars(path)
		if err != nil {
			return nil, fmt.Errorf("loading vars: %w", err)
		}
		layers = append(layers, v)
	}
	set := map[string]any{}
	for _, kv := range setVars {
		k, v, err := config.ParseSet(kv)
		if err != nil {
			return nil, err
		}
		set[k] = v
	}
	return config.MergeVars(append(layers, set)...), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfig, "config", "", "Path to condtag configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	renderCmd.Flags().StringArrayVar(&varsFiles, "vars", nil, "YAML file of template variables (repeatable)")
	renderCmd.Flags().StringArrayVar(&setVars, "set", nil, "Set a template variable as KEY=VALUE (repeatable)")
	renderCmd.Flags().BoolVar(&async, "async", false, "Run deferred lambdas concurrently")
	rootCmd.AddCommand(&renderCmd)

	rootCmd.AddCommand(&checkCmd)
	rootCmd.AddCommand(&tokensCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("fatal", "error", err)
		stop()
		os.Exit(1)
	}
}
