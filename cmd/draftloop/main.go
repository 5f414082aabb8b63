// Command draftloop runs the document-production workflow: an iterative
// drafter/reviewer loop with optional human gates, an audit trail, and
// archival of completed work.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/martymcenroe/draftloop/graph"
	"github.com/martymcenroe/draftloop/graph/emit"
	"github.com/martymcenroe/draftloop/graph/store"
	"github.com/martymcenroe/draftloop/workflow"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type runFlags struct {
	configPath    string
	kind          string
	briefFile     string
	itemID        string
	gateDraft     bool
	gateVerdict   bool
	maxIterations int
	storeDriver   string
	storeDSN      string
	jsonLogs      bool
	tracing       bool
	metricsAddr   string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "draftloop",
		Short:         "Iterative drafter/reviewer document production",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newInitCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one workflow to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "draftloop.yaml", "path to the run configuration")
	cmd.Flags().StringVar(&flags.kind, "kind", "", "workflow kind: document or tracked_item")
	cmd.Flags().StringVar(&flags.briefFile, "brief", "", "path to the brief file (document kind)")
	cmd.Flags().StringVar(&flags.itemID, "item", "", "tracked item id (tracked_item kind)")
	cmd.Flags().BoolVar(&flags.gateDraft, "gate-draft", false, "insert a human checkpoint after each draft")
	cmd.Flags().BoolVar(&flags.gateVerdict, "gate-verdict", false, "insert a human checkpoint after each review")
	cmd.Flags().IntVar(&flags.maxIterations, "max-iterations", 0, "override the iteration budget")
	cmd.Flags().StringVar(&flags.storeDriver, "store", "", "run store driver: memory, sqlite, or mysql")
	cmd.Flags().StringVar(&flags.storeDSN, "dsn", "", "store DSN (sqlite path or mysql DSN)")
	cmd.Flags().BoolVar(&flags.jsonLogs, "json-logs", false, "emit events as JSON lines")
	cmd.Flags().BoolVar(&flags.tracing, "trace", false, "emit OpenTelemetry spans per event")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, flags runFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	emitter := buildEmitter(cfg)

	var metrics *graph.Metrics
	if flags.metricsAddr != "" {
		registry := prometheus.NewRegistry()
		metrics = graph.NewMetrics(registry)
		go serveMetrics(flags.metricsAddr, registry)
	}

	drafter, err := workflow.ResolveModel(ctx, cfg.Drafter)
	if err != nil {
		return err
	}
	reviewer, err := workflow.ResolveModel(ctx, cfg.Reviewer)
	if err != nil {
		return err
	}

	runID := workflow.NewRunID()
	auditDir := filepath.Join(cfg.TargetRoot, "audit", runID)

	state, err := workflow.NewRunState(cfg.Kind, cfg.Drafter, cfg.Reviewer, auditDir, cfg.InstallRoot, cfg.TargetRoot, cfg.MaxIterations)
	if err != nil {
		return err
	}
	state.RunID = runID
	state.GateDraft = cfg.GateDraft
	state.GateVerdict = cfg.GateVerdict

	switch cfg.Kind {
	case workflow.KindDocument:
		if flags.briefFile == "" {
			return fmt.Errorf("--brief is required for a document run")
		}
		brief, err := os.ReadFile(flags.briefFile)
		if err != nil {
			return fmt.Errorf("read brief: %w", err)
		}
		state.Brief = string(brief)
	case workflow.KindTrackedItem:
		if flags.itemID == "" {
			return fmt.Errorf("--item is required for a tracked_item run")
		}
		state.ItemID = flags.itemID
	}

	var registry workflow.StatusRegistry = workflow.NullRegistry{}
	if cfg.Registry != "" {
		registry = workflow.NewYAMLRegistry(filepath.Join(cfg.TargetRoot, cfg.Registry))
	}

	engine, err := workflow.NewEngine(workflow.Deps{
		Drafter:   drafter,
		Reviewer:  reviewer,
		Tracker:   workflow.NewFileTracker(cfg.TargetRoot),
		Registry:  registry,
		Templates: workflow.NewTemplateSet(cfg.InstallRoot),
		Store:     st,
		Emitter:   emitter,
		Metrics:   metrics,
	}, cfg.MaxIterations)
	if err != nil {
		return err
	}

	final, err := engine.Run(ctx, runID, state)
	if err != nil {
		return fmt.Errorf("run %s failed: %w (audit trail: %s)", runID, err, auditDir)
	}

	printOutcome(cmd.OutOrStdout(), final)
	return nil
}

func loadConfig(cmd *cobra.Command, flags runFlags) (workflow.Config, error) {
	cfg := workflow.DefaultConfig()
	if _, err := os.Stat(flags.configPath); err == nil {
		loaded, err := workflow.LoadConfig(flags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	} else if cmd.Flags().Changed("config") {
		return cfg, fmt.Errorf("config file not found: %s", flags.configPath)
	}

	if flags.kind != "" {
		cfg.Kind = workflow.Kind(flags.kind)
	}
	if cmd.Flags().Changed("gate-draft") {
		cfg.GateDraft = flags.gateDraft
	}
	if cmd.Flags().Changed("gate-verdict") {
		cfg.GateVerdict = flags.gateVerdict
	}
	if flags.maxIterations > 0 {
		cfg.MaxIterations = flags.maxIterations
	}
	if flags.storeDriver != "" {
		cfg.Store.Driver = flags.storeDriver
	}
	if flags.storeDSN != "" {
		cfg.Store.DSN = flags.storeDSN
	}
	if flags.jsonLogs {
		cfg.JSONLogs = true
	}
	if flags.tracing {
		cfg.Tracing = true
	}

	return cfg, cfg.Validate()
}

func openStore(cfg workflow.StoreConfig) (store.Store[workflow.State], func(), error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemStore[workflow.State](), func() {}, nil
	case "sqlite":
		s, err := store.NewSQLiteStore[workflow.State](cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "mysql":
		s, err := store.NewMySQLStore[workflow.State](cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func buildEmitter(cfg workflow.Config) emit.Emitter {
	log := emit.NewLogEmitter(os.Stderr, cfg.JSONLogs)
	if !cfg.Tracing {
		return log
	}
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return emit.NewMultiEmitter(log, emit.NewOTelEmitter(tp.Tracer("draftloop")))
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintln(os.Stderr, "metrics server:", err)
	}
}

func printOutcome(w io.Writer, s workflow.State) {
	if s.ErrorMessage != "" {
		fmt.Fprintf(w, "run ended with error: %s\naudit trail: %s\n", s.ErrorMessage, s.AuditDir)
		return
	}
	fmt.Fprintf(w, "run completed: verdict=%s iterations=%d/%d\n", s.VerdictStatus, s.IterationCount, s.MaxIterations)
	if s.ItemRef != "" {
		fmt.Fprintf(w, "tracked item: %s\n", s.ItemRef)
	}
	for _, p := range s.Archived {
		fmt.Fprintf(w, "archived: %s\n", p)
	}
	fmt.Fprintf(w, "audit trail: %s\n", s.AuditDir)
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Scaffold a config file and the default prompt templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll("templates", 0o755); err != nil {
				return err
			}
			for name, content := range workflow.DefaultTemplates {
				path := filepath.Join("templates", name)
				if _, err := os.Stat(path); err == nil {
					continue
				}
				if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
					return err
				}
			}

			if _, err := os.Stat("draftloop.yaml"); os.IsNotExist(err) {
				cfg := "kind: document\n" +
					"drafter: mock:drafter\n" +
					"reviewer: mock:reviewer\n" +
					"gate_draft: false\n" +
					"gate_verdict: false\n" +
					"max_iterations: 5\n" +
					"install_root: .\n" +
					"target_root: .\n" +
					"store:\n  driver: sqlite\n  dsn: draftloop.db\n" +
					"registry: status.yaml\n"
				if err := os.WriteFile("draftloop.yaml", []byte(cfg), 0o644); err != nil {
					return err
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "scaffolded templates/ and draftloop.yaml")
			return nil
		},
	}
}
