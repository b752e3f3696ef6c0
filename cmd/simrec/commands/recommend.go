package commands

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/simrec/catalog"
	"github.com/rushteam/simrec/pkg/logging"
	"github.com/rushteam/simrec/service"
	"github.com/rushteam/simrec/store"
)

var (
	topN        int
	queryFilter string
	nprobe      int
)

// NewRecommendCmd 创建 recommend 命令
func NewRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <movie_id>",
		Short: "Recommend movies similar to the given one",
		Long: `Load the artifacts and print the movies most similar to movie_id.

Examples:
  simrec recommend 603
  simrec recommend 603 --top-n 20
  simrec recommend 603 --nprobe 256
  simrec recommend 603 --filter '"Drama" in item.genres'`,
		Args: cobra.ExactArgs(1),
		RunE: runRecommend,
	}
	cmd.Flags().IntVarP(&topN, "top-n", "n", 10, "Number of recommendations")
	cmd.Flags().StringVar(&queryFilter, "filter", "", "CEL filter expression (overrides query.filter)")
	cmd.Flags().IntVar(&nprobe, "nprobe", 0, "Inverted lists probed for this query (0 uses query.nprobe)")
	return cmd
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if err := validateFormat(); err != nil {
		return err
	}
	if topN <= 0 {
		return fmt.Errorf("top-n must be positive, got %d", topN)
	}
	if nprobe < 0 {
		return fmt.Errorf("nprobe must not be negative, got %d", nprobe)
	}
	itemID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid movie_id %q: %w", args[0], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if queryFilter != "" {
		cfg.Query.Filter = queryFilter
	}
	logger := logging.Component("recommend")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	eopts, err := engineOptions(cfg, logger)
	if err != nil {
		return err
	}
	e, err := service.Open(ctx, cfg.ArtifactsDir, cfg.Options(), catalog.New(s), eopts...)
	if err != nil {
		return fmt.Errorf("open artifacts: %w", err)
	}

	res, err := e.Recommend(ctx, itemID, topN, service.WithNProbe(nprobe))
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func printResult(cmd *cobra.Command, res *service.Result) error {
	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling JSON: %w", err)
		}
		fmt.Fprintf(out, "%s\n", data)
		return nil
	}

	switch res.Status {
	case service.StatusNotFound:
		fmt.Fprintf(out, "Movie ID %d not found in the dataset.\n", res.ItemID)
		return nil
	case service.StatusNoEmbedding:
		fmt.Fprintf(out, "Movie ID %d has no content to compare against.\n", res.ItemID)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MOVIE ID\tTITLE\tGENRES\tSIMILARITY\n")
	for _, it := range res.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.4f\n", it.ItemID, it.Title, it.Genres, it.Similarity)
	}
	return w.Flush()
}
