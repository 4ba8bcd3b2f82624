// Package main provides the vocabularies binary entry point.
// It fetches the cataloged registers, normalizes them into vocabulary
// clusters and persists or dumps them, and offers lookup commands over
// the loaded tables.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ecolabdata/ecospheres-vocabularies/config"
	"github.com/ecolabdata/ecospheres-vocabularies/loader"
	"github.com/ecolabdata/ecospheres-vocabularies/parser"
	"github.com/ecolabdata/ecospheres-vocabularies/reader"
	"github.com/ecolabdata/ecospheres-vocabularies/search"
	"github.com/ecolabdata/ecospheres-vocabularies/table"
	"github.com/ecolabdata/ecospheres-vocabularies/vocab"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "vocabularies"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Vocabulary ingestion and lookup toolchain",
		Long: `Vocabularies fetches thematic, territorial, license, CRS and language
registers, normalizes them into relational vocabulary tables and loads
them into Postgres. Lookup commands resolve labels, URIs and territories
against the loaded tables.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newListCmd(),
		newLoadCmd(),
		newDumpCmd(),
		newSearchCmd(),
		newTerritoryCmd(),
		newVersionCmd(),
	)
	return cmd
}

func setupLogging(logLevel string) {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader(nil).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openIndex(cfg *config.Config) (*vocab.Index, error) {
	opts := []vocab.Option{
		vocab.WithDumpDir(cfg.Dump.Dir),
		vocab.WithRequestParams(requestParams(cfg)),
	}
	if cfg.Catalog.Path != "" {
		opts = append(opts, vocab.WithCatalogFile(cfg.Catalog.Path))
	}
	return vocab.New(opts...)
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	url := cfg.DatabaseURL()
	if url == "" {
		return nil, fmt.Errorf("database url is not configured (set database.url or %s)", config.EnvDatabaseURL)
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// requestParams turns the HTTP config into per-request parser parameters.
func requestParams(cfg *config.Config) parser.Params {
	params := parser.Params{parser.ParamTimeout: cfg.HTTP.Timeout}
	if cfg.HTTP.Proxy != "" {
		params[parser.ParamProxy] = cfg.HTTP.Proxy
	}
	if cfg.HTTP.User != "" {
		params[parser.ParamUser] = cfg.HTTP.User
		params[parser.ParamPassword] = cfg.HTTP.Password
	}
	return params
}

func newListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cataloged vocabularies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ix, err := openIndex(cfg)
			if err != nil {
				return err
			}
			for _, name := range ix.Names(!all) {
				entry, err := ix.Entry(name)
				if err != nil {
					return err
				}
				marker := ""
				if !entry.IsAvailable() {
					marker = " (unavailable)"
				}
				fmt.Printf("%-40s %s%s\n", name, entry.URL, marker)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include unavailable vocabularies")
	return cmd
}

func newLoadCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "load [vocabulary...]",
		Short: "Fetch vocabularies and load them into Postgres",
		Long: `Load fetches the named vocabularies (every available one when no name
is given), validates them and persists their tables into the vocabulary
schema. Partially parsed vocabularies are persisted too; critical
failures are skipped and logged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ix, err := openIndex(cfg)
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if metricsAddr != "" {
				go serveMetrics(metricsAddr)
			}

			ctx := cmd.Context()
			ld := loader.New(db, slog.Default())
			loaded := ix.LoadAll(ctx, args, func(ctx context.Context, cluster *table.Cluster) error {
				report, err := ld.Load(ctx, cluster)
				if err != nil {
					return err
				}
				if !report.OK() {
					return fmt.Errorf("%d tables failed", len(report.Failed))
				}
				return nil
			})
			slog.Info("Load finished", "loaded", len(loaded), "vocabularies", loaded)
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Expose Prometheus metrics on this address while loading")
	return cmd
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("Metrics endpoint stopped", "error", err)
	}
}

func newDumpCmd() *cobra.Command {
	var permissive bool
	cmd := &cobra.Command{
		Use:   "dump [vocabulary...]",
		Short: "Fetch vocabularies and dump them as JSON files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ix, err := openIndex(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				dumped := ix.LoadAndDumpAll(ctx, permissive)
				slog.Info("Dump finished", "dumped", len(dumped))
				return nil
			}
			for _, name := range args {
				if err := ix.LoadAndDump(ctx, name, permissive); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&permissive, "permissive", false, "Dump vocabularies that parsed with row errors")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var language string
	cmd := &cobra.Command{
		Use:   "search <field-path> <value>",
		Short: "Canonicalize a field value to a vocabulary URI",
		Long: `Search resolves a raw value against the vocabularies attached to a
metadata field (for example "category" or "theme/uri"), trying direct
URI membership, synonyms, labels and regular expressions in that order.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			facade, err := search.NewFacade(reader.New(db))
			if err != nil {
				return err
			}
			path := strings.Split(args[0], "/")
			uri, err := facade.SearchURI(cmd.Context(), path, args[1])
			if err != nil {
				return err
			}
			if uri == "" {
				return fmt.Errorf("no match for %q in field %s", args[1], args[0])
			}
			fmt.Println(uri)
			if language != "" {
				label, err := facade.SearchLabel(cmd.Context(), path, uri, language)
				if err != nil {
					return err
				}
				if label != "" {
					fmt.Println(label)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&language, "label", "", "Also print the label in this language")
	return cmd
}

func newTerritoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "territory <uri>",
		Short: "Reconcile a territorial URI to a canonical territory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			facade, err := search.NewFacade(reader.New(db))
			if err != nil {
				return err
			}
			territory, err := facade.SearchTerritory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if territory == "" {
				return fmt.Errorf("no territory found for %s", args[0])
			}
			fmt.Println(territory)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
