package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"reuseit/delivery/activities"
	"reuseit/delivery/workflows"
	"reuseit/internal/codegen"
	"reuseit/internal/config"
	"reuseit/internal/logging"
	"reuseit/internal/metrics"
	"reuseit/internal/stores"
)

func main() {
	cfg, err := config.Load(getEnv("REUSEIT_CONFIG", ""))
	if err != nil {
		log.Fatalln("Unable to load configuration", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level)
	if err != nil {
		log.Fatalln("Unable to create logger", err)
	}

	// Create Temporal client
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalln("Unable to create Temporal client", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := stores.Open(ctx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalln("Unable to open stores", err)
	}
	defer st.Close()

	issuer, err := codegen.New(cfg.Codes.Issuer, cfg.Codes.Static)
	if err != nil {
		log.Fatalln("Unable to create code issuer", err)
	}

	reg := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(reg)
	if addr := getEnv("WORKER_METRICS_ADDR", ""); addr != "" {
		go serveMetrics(addr, reg, logger)
	}

	taskQueue := cfg.Temporal.TaskQueue
	identity := "delivery-worker-" + hostname()

	w := worker.New(c, taskQueue, worker.Options{
		Identity:                               identity,
		MaxConcurrentActivityExecutionSize:     100,
		MaxConcurrentWorkflowTaskExecutionSize: 50,
	})

	// Register workflows
	w.RegisterWorkflow(workflows.DeliveryWorkflow)

	// Register activities
	w.RegisterActivity(&activities.ConfirmationActivities{Issuer: issuer, Metrics: recorder})
	w.RegisterActivity(&activities.TicketActivities{Store: st.Archive, Metrics: recorder})

	logger.Info("Worker starting", "taskQueue", taskQueue, "identity", identity, "codeIssuer", cfg.Codes.Issuer)

	err = w.Run(worker.InterruptCh())
	if err != nil {
		log.Fatalln("Unable to start worker", err)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger tlog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Metrics server stopped", "error", err)
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
