package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agromaps/cropmask-cli/internal/export"
	"github.com/agromaps/cropmask-cli/internal/pipeline"
	"github.com/agromaps/cropmask-cli/internal/raster"
	"github.com/agromaps/cropmask-cli/internal/region"
)

var (
	runRegion string
	runYear   string
	runStart  string
	runEnd    string
	runTrees  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the cropmask pipeline for a region and year",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		params, err := buildParams()
		if err != nil {
			return err
		}

		loader := region.NewShapefileLoader(cfg.Assets)
		exporter := export.NewLocal(cfg.Export.Root, st)
		compositor := func(slug, year string) raster.Compositor {
			return raster.NewGeoTIFFCompositor(cfg.Assets.Root, slug, year)
		}

		p := pipeline.New(cfg, st, loader, compositor, exporter)

		result, err := p.Run(ctx, params)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("asset", result.Asset),
			zap.Float64("accuracy", result.Accuracy),
			zap.Int("train_samples", result.TrainSamples),
			zap.Int("test_samples", result.TestSamples),
		)

		// The export continues in the background; wait so a short-lived CLI
		// process does not abandon the write, without promising success.
		exporter.Wait()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func buildParams() (pipeline.Params, error) {
	params := pipeline.Params{
		Region: firstNonEmpty(runRegion, cfg.Run.Region),
		Year:   firstNonEmpty(runYear, cfg.Run.Year),
		Trees:  runTrees,
	}
	if params.Trees == 0 {
		params.Trees = cfg.Run.Trees
	}

	var err error
	if params.Start, err = parseDate(firstNonEmpty(runStart, cfg.Run.Start)); err != nil {
		return params, err
	}
	if params.End, err = parseDate(firstNonEmpty(runEnd, cfg.Run.End)); err != nil {
		return params, err
	}
	return params, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "parse date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	runCmd.Flags().StringVar(&runRegion, "region", "", "region name (e.g. \"West Darfur\")")
	runCmd.Flags().StringVar(&runYear, "year", "", "mapped year (e.g. 2022)")
	runCmd.Flags().StringVar(&runStart, "start", "", "analysis window start (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "analysis window end (YYYY-MM-DD)")
	runCmd.Flags().IntVar(&runTrees, "trees", 0, "tree count for the ensemble")
	rootCmd.AddCommand(runCmd)
}
