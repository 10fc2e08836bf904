package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/gait_lock/internal/app"
	"github.com/relabs-tech/gait_lock/internal/config"
	"github.com/relabs-tech/gait_lock/internal/dataset"
	"github.com/relabs-tech/gait_lock/internal/ensemble"
	"github.com/relabs-tech/gait_lock/internal/similarity"
)

func replayCmd() *cobra.Command {
	var (
		out   string
		mode  string
		model string
	)
	cmd := &cobra.Command{
		Use:   "replay <dir>",
		Short: "Train and score the classifier on a CSV walk directory",
		Long: `Loads every <identity>_<n>.csv (or headerless <identity><n>.txt) walk
in dir, trains the pairwise ensemble and prints the cross-validated accuracy
per depth for each member. With --model a saved ensemble is scored on the
directory instead of training a new one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			if mode == "" {
				mode = cfg.ClassifierMode
			}
			m, err := ensemble.ParseMode(mode)
			if err != nil {
				return err
			}
			metrics, err := similarity.Lookup(cfg.ActiveMetrics...)
			if err != nil {
				return err
			}
			store, err := dataset.NewCSVStore(args[0])
			if err != nil {
				return err
			}
			opts := app.ReplayOptions{
				RateHz:   cfg.TargetRateHz,
				Mode:     m,
				Metrics:  metrics,
				Bins:     cfg.FeatureBins,
				MaxDepth: cfg.MaxDepth,
			}
			if model != "" {
				if opts.Model, err = loadModel(model); err != nil {
					return err
				}
			}

			log.Printf("replaying walks from %s", store.Dir())
			rep, err := app.Replay(cmd.Context(), store, opts)
			if err != nil {
				return err
			}
			rep.WriteReport(os.Stdout)

			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := ensemble.Save(f, rep.Ensemble); err != nil {
					return err
				}
				log.Printf("model written to %s", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the trained model as JSON")
	cmd.Flags().StringVar(&mode, "mode", "", "classifier mode (per_metric, per_dimension)")
	cmd.Flags().StringVar(&model, "model", "", "score a model written by --out instead of training")
	return cmd
}

func loadModel(path string) (*ensemble.Ensemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ensemble.Load(f)
}
