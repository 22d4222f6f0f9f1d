package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/subconv/internal/bootstrap"
	"github.com/creamcroissant/subconv/internal/clash"
	"github.com/creamcroissant/subconv/internal/config"
	"github.com/creamcroissant/subconv/internal/service"
	"github.com/creamcroissant/subconv/internal/support/logging"
)

// sourceFlags 是 convert 与 tui 共用的订阅来源参数
type sourceFlags struct {
	urls    []string
	file    string
	profile string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.urls, "url", "u", nil, "subscription URL, repeatable")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "subscription file, '-' reads stdin")
	cmd.Flags().StringVar(&f.profile, "profile", "", "rule profile, overrides profile.path")
}

// request 读取本地订阅内容并组装转换请求
func (f *sourceFlags) request(stdin io.Reader) (service.Request, error) {
	req := service.Request{SubscriptionURLs: f.urls}
	switch f.file {
	case "":
	case "-":
		blob, err := io.ReadAll(stdin)
		if err != nil {
			return req, fmt.Errorf("read stdin: %w", err)
		}
		req.Blob = blob
	default:
		blob, err := os.ReadFile(f.file)
		if err != nil {
			return req, fmt.Errorf("read subscription file: %w", err)
		}
		req.Blob = blob
	}
	if len(req.SubscriptionURLs) == 0 && len(req.Blob) == 0 {
		return req, fmt.Errorf("one of --url or --file is required")
	}
	return req, nil
}

func (f *sourceFlags) setup(logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	if f.profile != "" {
		cfg.Profile.Path = f.profile
	}
	logger := logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    "text",
		AddSource: cfg.Log.AddSource,
		Writer:    logOut,
	})
	return cfg, logger, nil
}

func init() {
	var flags sourceFlags
	var output string
	var convertCmd = &cobra.Command{
		Use:   "convert",
		Short: "Convert subscriptions and print the clash config",
		Example: `  subconv convert --url https://example.com/sub
  cat sub.txt | subconv convert --file - --output config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, logger, err := flags.setup(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			comps := bootstrap.NewComponents(cfg, logger, nil)
			res, err := comps.Converter.Convert(ctx, req)
			if err != nil {
				return err
			}
			out, err := clash.Encode(res.Document)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			d := res.Diagnostics
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s: %d proxies, %d groups, %d rules (%d links dropped)\n",
				output, len(res.Document.Proxies), len(res.Document.ProxyGroups), len(res.Document.Rules), len(d.Dropped))
			return nil
		},
	}
	flags.register(convertCmd)
	convertCmd.Flags().StringVarP(&output, "output", "o", "", "write the config to a file instead of stdout")
	rootCmd.AddCommand(convertCmd)

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "subconv %s (commit %s, built %s)\n", Version, Commit, BuildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)
}
