package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"marketdw/internal/dataset"
	"marketdw/internal/merge"
	"marketdw/internal/metrics"
	"marketdw/internal/metrics/datadog"
	"marketdw/internal/starschema"
	"marketdw/internal/storage"
)

var (
	runClearExisting  bool
	runMetricsBackend string
	runMetricsTags    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Load one period of exports into the warehouse",
	Long: `Load the period directory's CSV exports, build the star schema and
merge it into the warehouse.

The command exits non-zero unless every table persisted successfully.

Example:
  etl run --period 2025-01 --storage sqlite --dsn warehouse.db
  etl run --period 2025-01 --clear-existing`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&period, "period", "",
		"period subdirectory of data-dir, e.g. 2025-01")
	runCmd.Flags().BoolVar(&runClearExisting, "clear-existing", false,
		"delete all warehouse rows before loading (destructive)")
	runCmd.Flags().StringVar(&runMetricsBackend, "metrics-backend", "",
		"metrics backend: none or datadog")
	runCmd.Flags().StringVar(&runMetricsTags, "metrics-tags", "",
		"extra metric tags, comma separated (e.g. env:prod)")
}

func runRun(cmd *cobra.Command, args []string) error {
	if runClearExisting {
		cfg.ClearExisting = true
	}
	if runMetricsBackend != "" {
		cfg.Metrics.Backend = runMetricsBackend
	}
	if runMetricsTags != "" {
		cfg.Metrics.Tags = runMetricsTags
	}
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	backend := newMetricsBackend()
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("metrics close failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err := runLoad(ctx, backend)
	status := "ok"
	if err != nil {
		status = "error"
	}
	backend.ObserveDuration(metrics.RunDuration, time.Since(start).Seconds(), metrics.Labels{"status": status})
	return err
}

func runLoad(ctx context.Context, backend metrics.Backend) error {
	dir := periodDir()
	bundle, err := dataset.Load(dir, log)
	if err != nil {
		return err
	}
	for _, issue := range dataset.Validate(bundle) {
		log.Warn().Str("issue", issue).Msg("dataset validation")
	}

	schema := starschema.New(log)
	tables := schema.BuildComplete(bundle)
	for name, t := range tables {
		backend.IncCounter(metrics.RowsBuilt, float64(t.Len()), metrics.Labels{"table": name})
	}

	wh, err := storage.Open(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer wh.Close()

	m := merge.New(wh, log)
	if cfg.ClearExisting {
		if err := m.ClearExisting(ctx); err != nil {
			return err
		}
	}

	saved, err := m.SaveAll(ctx, tables)
	if err != nil {
		return err
	}

	var failed []string
	for _, name := range starschema.BuildOrder {
		ok, attempted := saved[name]
		if !attempted {
			continue
		}
		if ok {
			backend.IncCounter(metrics.RowsPersisted, float64(tables[name].Len()), metrics.Labels{"table": name})
			log.Info().Str("table", name).Int("rows", tables[name].Len()).Msg("persisted")
			continue
		}
		backend.IncCounter(metrics.TableFailures, 1, metrics.Labels{"table": name})
		failed = append(failed, name)
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("failed tables: %s", strings.Join(failed, ", "))
	}

	log.Info().Str("batch_id", schema.BatchID()).Str("period", dir).Msg("load complete")
	return nil
}

// newMetricsBackend wires the configured backend; a setup failure degrades
// to nop so the load itself never depends on the metrics path.
func newMetricsBackend() metrics.Backend {
	switch cfg.Metrics.Backend {
	case "datadog":
		b, err := datadog.NewBackend(context.Background(), datadog.Options{
			JobName:    cfg.Metrics.Job,
			Tags:       datadog.ParseTagsCSV(cfg.Metrics.Tags),
			FlushEvery: time.Duration(cfg.Metrics.FlushSeconds) * time.Second,
		})
		if err != nil {
			log.Warn().Err(err).Msg("datadog metrics init failed, metrics disabled")
			return metrics.Nop{}
		}
		log.Info().Str("backend", "datadog").Str("job", cfg.Metrics.Job).Msg("metrics enabled")
		return b
	default:
		return metrics.Nop{}
	}
}
