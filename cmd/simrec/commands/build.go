package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/pkg/logging"
	"github.com/rushteam/simrec/service"
	"github.com/rushteam/simrec/store"
)

// NewBuildCmd 创建 build 命令
func NewBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build <movies.csv>",
		Short: "Build the similarity index and artifacts",
		Long: `Fit the text and categorical transformers on the given movies,
build the ANN index and write all artifacts to the artifacts directory.

The CSV needs a movie_id (or id) column; the other recognised columns are
title, genres, cast, director, production_companies, production_countries,
spoken_languages, overview, tagline and keywords.`,
		Args: cobra.ExactArgs(1),
		RunE: runBuild,
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Component("build")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	recs, err := LoadRecords(args[0])
	if err != nil {
		return err
	}
	logger.Info().Int("records", len(recs)).Str("path", args[0]).Msg("records loaded")

	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	eopts, err := engineOptions(cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	e, err := service.Build(ctx, recs, cfg.Options(), catalog.New(s), eopts...)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	if err := os.MkdirAll(cfg.ArtifactsDir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}
	if err := e.Save(cfg.ArtifactsDir); err != nil {
		return fmt.Errorf("save artifacts: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d of %d movies (%s) into %s in %s\n",
		e.Index().Ntotal(), len(recs), e.Index().Backend(), cfg.ArtifactsDir, time.Since(start).Round(time.Millisecond))
	return nil
}
