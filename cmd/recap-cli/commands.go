package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"recap/internal/collection"
	"recap/internal/collection/csvfile"
	"recap/internal/collection/google"
	"recap/internal/collection/memory"
	"recap/internal/core"
	"recap/internal/log"
	"recap/internal/services"
	"recap/internal/storage"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	dbPath   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "recap-cli",
		Short:         "Yearly recaps of a game collection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database holding cover overrides")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")

	root.AddCommand(newSummarizeCmd(opts), newOverrideCmd(opts))
	return root
}

func (o *rootOptions) logger(w io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(o.logLevel)
	cfg.Output = w
	return log.New(cfg)
}

// openStore returns the SQLite store named by --db, or an empty in-memory
// store when none is given.
func (o *rootOptions) openStore() (collection.Store, func(), error) {
	if o.dbPath == "" {
		return memory.New(), func() {}, nil
	}
	repo, err := storage.NewSQLiteRepository(o.dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return repo, func() { _ = repo.Close() }, nil
}

func (o *rootOptions) requireStore() (collection.Store, func(), error) {
	if o.dbPath == "" {
		return nil, nil, errors.New("--db is required")
	}
	return o.openStore()
}

type summarizeOptions struct {
	file  string
	sheet bool
	year  int
	years string
}

func newSummarizeCmd(root *rootOptions) *cobra.Command {
	opts := &summarizeOptions{}
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Print the recap of a collection export as JSON",
		Example: `  recap-cli summarize --file games.csv --year 2024
  recap-cli summarize --sheet --years 2023,2024 --db ./data/recap.db`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSummarize(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "", "CSV export to read")
	cmd.Flags().BoolVar(&opts.sheet, "sheet", false, "read the Google Sheet configured by GOOGLE_SPREADSHEET_ID")
	cmd.Flags().IntVar(&opts.year, "year", time.Now().Year(), "recap year")
	cmd.Flags().StringVar(&opts.years, "years", "", "comma separated recap years; prints a list")
	cmd.MarkFlagsMutuallyExclusive("file", "sheet")
	cmd.MarkFlagsOneRequired("file", "sheet")
	cmd.MarkFlagsMutuallyExclusive("year", "years")
	return cmd
}

func runSummarize(cmd *cobra.Command, root *rootOptions, opts *summarizeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var source collection.RecordSource
	if opts.sheet {
		client, err := google.NewFromEnv(ctx)
		if err != nil {
			return err
		}
		source = client
	} else {
		source = csvfile.Source{Path: opts.file}
	}

	records, err := source.Records(ctx)
	if err != nil {
		return err
	}

	store, closeStore, err := root.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	recaps := services.NewRecapService(store, nil, 4, root.logger(cmd.ErrOrStderr()))

	if opts.years != "" {
		years, err := parseYears(opts.years)
		if err != nil {
			return err
		}
		sums, err := recaps.BuildRecaps(ctx, records, years)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), sums)
	}

	if err := core.ValidateYear(opts.year); err != nil {
		return err
	}
	sum, err := recaps.Recap(ctx, records, opts.year)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), sum)
}

func newOverrideCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage cover image overrides",
	}

	var id, cover string
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the cover image of a game",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecaps(cmd, root, func(ctx context.Context, recaps *services.RecapService) error {
				if err := recaps.SetOverride(ctx, id, core.GameOverride{CoverImage: &cover}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "override saved for %s\n", strings.TrimSpace(id))
				return nil
			})
		},
	}
	set.Flags().StringVar(&id, "id", "", "game id")
	set.Flags().StringVar(&cover, "cover", "", "http(s) cover image URL")
	_ = set.MarkFlagRequired("id")
	_ = set.MarkFlagRequired("cover")

	var rmID string
	rm := &cobra.Command{
		Use:   "rm",
		Short: "Remove the override of a game",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecaps(cmd, root, func(ctx context.Context, recaps *services.RecapService) error {
				if err := recaps.DeleteOverride(ctx, rmID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "override removed for %s\n", strings.TrimSpace(rmID))
				return nil
			})
		},
	}
	rm.Flags().StringVar(&rmID, "id", "", "game id")
	_ = rm.MarkFlagRequired("id")

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List overrides as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRecaps(cmd, root, func(ctx context.Context, recaps *services.RecapService) error {
				overrides, err := recaps.ListOverrides(ctx)
				if err != nil {
					return err
				}
				if overrides == nil {
					overrides = map[string]core.GameOverride{}
				}
				return printJSON(cmd.OutOrStdout(), overrides)
			})
		},
	}

	cmd.AddCommand(set, rm, ls)
	return cmd
}

func withRecaps(cmd *cobra.Command, root *rootOptions, fn func(context.Context, *services.RecapService) error) error {
	store, closeStore, err := root.requireStore()
	if err != nil {
		return err
	}
	defer closeStore()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, services.NewRecapService(store, nil, 1, root.logger(cmd.ErrOrStderr())))
}

func parseYears(raw string) ([]int, error) {
	var years []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", core.ErrInvalidYear, part)
		}
		if err := core.ValidateYear(y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	if len(years) == 0 {
		return nil, fmt.Errorf("%w: no years given", core.ErrInvalidYear)
	}
	return years, nil
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
