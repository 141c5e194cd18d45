package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/stuarthighley/wad/v2"
	"github.com/stuarthighley/wad/v2/entrytype"
	"github.com/stuarthighley/wad/v2/internal/config"
)

type app struct {
	configPath string
	logLevel   string
	rules      string
	keepData   bool
	unlockIWAD bool

	cfg    *config.Config
	reg    *entrytype.Registry
	log    zerolog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "wadtool",
		Short:         "Work with Doom WAD files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&a.rules, "rules", "", "YAML file with extra entry type rules")
	pf.BoolVar(&a.keepData, "keep-data", false, "keep entry data in memory after opening")
	pf.BoolVar(&a.unlockIWAD, "unlock-iwad", false, "allow IWADs to be written")

	root.AddCommand(
		newListCmd(a),
		newMapsCmd(a),
		newNamespacesCmd(a),
		newVerifyCmd(a),
		newRepackCmd(a),
		newExportCmd(a),
	)
	return root
}

// setup loads the config file and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		if _, err := zerolog.ParseLevel(a.logLevel); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("rules") {
		cfg.Rules = a.rules
	}
	if flags.Changed("keep-data") {
		cfg.KeepData = a.keepData
	}
	if flags.Changed("unlock-iwad") {
		cfg.UnlockIWAD = a.unlockIWAD
	}
	a.cfg = cfg

	a.log, a.closer = newLogger(cfg)
	wad.SetLogger(a.log)

	a.reg, err = cfg.Registry()
	if err != nil {
		a.log.Error().Err(err).Str("rules", cfg.Rules).Msg("Failed to load entry type rules")
		return err
	}
	return nil
}

func (a *app) options(extra ...wad.Option) []wad.Option {
	return append(a.cfg.ArchiveOptions(a.reg), extra...)
}

// eachFile runs fn for every path on a bounded number of goroutines. Each call gets its own
// archive, so nothing is shared between them. Output is written in argument order once all
// files are done.
func (a *app) eachFile(ctx context.Context, out io.Writer, paths []string, fn func(ctx context.Context, path string) (string, error)) error {
	results := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := fn(ctx, path)
			if err != nil {
				a.log.Error().Err(err).Str("file", path).Msg("Failed")
				return err
			}
			results[i] = s
			return nil
		})
	}
	err := g.Wait()
	for i, s := range results {
		if s == "" {
			continue
		}
		if len(paths) > 1 {
			fmt.Fprintf(out, "==> %s <==\n", paths[i])
		}
		fmt.Fprint(out, s)
		if len(paths) > 1 && i < len(paths)-1 && !strings.HasSuffix(s, "\n\n") {
			fmt.Fprintln(out)
		}
	}
	return err
}
