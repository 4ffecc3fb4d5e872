package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsxjacky/ec-forecast/internal/data"
	"github.com/opsxjacky/ec-forecast/internal/engine"
	"github.com/opsxjacky/ec-forecast/internal/model"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ecforecast",
		Short:         "EC time-series data preparation and forecasting",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to YAML config file")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with secrets")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(newDatasetsCmd(a), newLoadCmd(a), newPredictCmd(a))
	return root
}

func newDatasetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range a.registry.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		names      []string
		opts       data.Options
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load, validate and normalize datasets into one table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ResampleFreq == "" {
				opts.ResampleFreq = a.cfg.Resample.Freq
			}
			if opts.ResampleAgg == "" {
				opts.ResampleAgg = a.cfg.GetResampleAgg()
			}
			if opts.SourceTZ == "" {
				opts.SourceTZ = a.cfg.GetSourceTimezone()
			}
			opts.Logger = a.logger
			opts.Metrics = a.metrics

			table, err := data.LoadDatasets(cmd.Context(), a.registry, names, opts)
			if err != nil {
				return err
			}
			df := table.ToDataFrame()
			if df.Err != nil {
				return fmt.Errorf("failed to build output frame: %w", df.Err)
			}

			return writeOutput(outputPath, cmd.OutOrStdout(), func(w io.Writer) error {
				return df.WriteCSV(w)
			})
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&names, "datasets", nil, "comma separated dataset names")
	f.StringVar(&opts.ResampleFreq, "resample-freq", "", "resample frequency, e.g. H, 15min, 1D")
	f.StringVar(&opts.ResampleAgg, "resample-agg", "", "resample aggregation (max, min, mean, sum, median, first, last, count, std)")
	f.StringVar(&opts.DSCol, "ds-col", "ds", "datetime column")
	f.StringVar(&opts.StationCol, "station-col", "station", "station column")
	f.StringVar(&opts.SourceTZ, "source-tz", "", "timezone of naive timestamps")
	f.StringVar(&outputPath, "output-csv", "", "output CSV path (default stdout)")
	_ = cmd.MarkFlagRequired("datasets")
	return cmd
}

func newPredictCmd(a *app) *cobra.Command {
	var (
		inputPath  string
		outputPath string
		modelName  string
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a trained model on an input CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			artifact, err := model.Load(a.cfg.GetModelsDir(), modelName)
			if err != nil {
				return err
			}
			predictor, err := model.New(artifact)
			if err != nil {
				return fmt.Errorf("failed to build model %s: %w", artifact.Name, err)
			}
			a.logger.Infow("model loaded", "model", artifact.Name, "kind", artifact.Kind, "path", artifact.Path)

			df, err := data.ReadCSVFile(inputPath, ',')
			if err != nil {
				return err
			}

			e := engine.New(a.logger, a.metrics)
			e.SetPredictor(artifact, predictor)
			if _, err := e.Run(df); err != nil {
				return err
			}

			if outputPath != "" {
				if err := e.ExportResults(outputPath); err != nil {
					return err
				}
			} else if err := e.WriteCSV(cmd.OutOrStdout()); err != nil {
				return err
			}
			e.PrintSummary(cmd.ErrOrStderr())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&inputPath, "input-csv", "", "input CSV with the series to forecast")
	f.StringVar(&outputPath, "output-csv", "", "output CSV path (default stdout)")
	f.StringVar(&modelName, "model-name", "", "model directory name under the models dir")
	_ = cmd.MarkFlagRequired("input-csv")
	_ = cmd.MarkFlagRequired("model-name")
	return cmd
}

// writeOutput 写入文件, path 为空时写到 stdout
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
