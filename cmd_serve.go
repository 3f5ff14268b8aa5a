// Copyright (C) 2026  Toby Vance
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dhttp"
	"github.com/datawire/dlib/dlog"
	"github.com/spf13/cobra"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/tobyv/nugetd/pkg/blob"
	"github.com/tobyv/nugetd/pkg/cliutil"
	"github.com/tobyv/nugetd/pkg/nuget"
	"github.com/tobyv/nugetd/pkg/webapi"
)

// serveConfig is the YAML config file schema; each field is also settable by
// flag, and flags win.
type serveConfig struct {
	// Listen is the address to bind, host:port.
	Listen string `json:"listen"`
	// Storage is the directory to store packages under; empty selects an
	// in-memory store that forgets everything at exit.
	Storage string `json:"storage"`
	// URL is the absolute external base URL that clients reach the
	// server at; it is what the URLs inside metadata documents are
	// derived from.
	URL string `json:"url"`
}

func init() {
	cfg := serveConfig{
		Listen: ":8080",
	}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Run the repository server",

		Args: cliutil.WrapPositionalArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile != "" {
				fileCfg, err := loadServeConfig(cfgFile)
				if err != nil {
					return err
				}
				// Flags given on the command line win over
				// the file.
				if !cmd.Flags().Changed("listen") && fileCfg.Listen != "" {
					cfg.Listen = fileCfg.Listen
				}
				if !cmd.Flags().Changed("storage") {
					cfg.Storage = fileCfg.Storage
				}
				if !cmd.Flags().Changed("url") {
					cfg.URL = fileCfg.URL
				}
			}
			if cfg.URL == "" {
				cfg.URL = "http://localhost" + ensurePort(cfg.Listen)
			}
			cfg.URL = strings.TrimRight(cfg.URL, "/")
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Listen, "listen", cfg.Listen, "address to bind (host:port)")
	cmd.Flags().StringVar(&cfg.Storage, "storage", "", "directory to store packages under (empty: in-memory)")
	cmd.Flags().StringVar(&cfg.URL, "url", "", "external base URL (default: derived from --listen)")
	cmd.Flags().StringVar(&cfgFile, "config", "", "YAML config file")
	argparser.AddCommand(cmd)
}

func loadServeConfig(filename string) (serveConfig, error) {
	var cfg serveConfig
	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, err
	}
	if err := sigsyaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %q: %w", filename, err)
	}
	return cfg, nil
}

// ensurePort turns a bind address in to something usable after
// "http://localhost"; a bare ":8080" stays, anything else keeps its port.
func ensurePort(listen string) string {
	if idx := strings.LastIndex(listen, ":"); idx >= 0 {
		return listen[idx:]
	}
	return ""
}

func serve(ctx context.Context, cfg serveConfig) error {
	var storage blob.Storage
	if cfg.Storage == "" {
		dlog.Infof(ctx, "using in-memory storage; pushed packages will not survive a restart")
		storage = blob.NewMemory()
	} else {
		fileStorage, err := blob.NewFileStorage(cfg.Storage)
		if err != nil {
			return err
		}
		storage = fileStorage
	}

	handler := webapi.NewHandler(nuget.NewRepository(storage), cfg.URL)

	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{
		EnableSignalHandling: true,
	})
	grp.Go("http", func(ctx context.Context) error {
		dlog.Infof(ctx, "listening on %s (external URL %s)", cfg.Listen, cfg.URL)
		sc := &dhttp.ServerConfig{
			Handler: handler,
		}
		return sc.ListenAndServe(ctx, cfg.Listen)
	})
	return grp.Wait()
}
