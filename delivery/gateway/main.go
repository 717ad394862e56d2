package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.temporal.io/sdk/client"

	"reuseit/delivery/gateway/api"
	"reuseit/delivery/sessions"
	"reuseit/internal/config"
	"reuseit/internal/logging"
	"reuseit/internal/metrics"
	"reuseit/internal/stores"
)

func main() {
	configPath := flag.String("config", os.Getenv("REUSEIT_CONFIG"), "YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalln("Unable to load configuration", err)
	}
	logger, err := logging.New(os.Stdout, cfg.Log.Level)
	if err != nil {
		log.Fatalln("Unable to create logger", err)
	}

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv := &api.Server{
		Sessions: &sessions.Temporal{
			Client:    c,
			TaskQueue: cfg.Temporal.TaskQueue,
			Timing:    cfg.WorkflowTiming(),
		},
		Archive:        st.Archive,
		Keepsakes:      st.Keepsakes,
		Pickup:         st.Pickup,
		Geocoder:       st.Gazetteer,
		RegionMarkers:  cfg.Search.RegionMarkers,
		Debounce:       cfg.Search.Debounce,
		AllowedOrigins: cfg.Gateway.AllowedOrigins,
		Metrics:        metrics.NewRecorder(reg),
		Gatherer:       reg,
		Logger:         logger,
	}

	httpServer := &http.Server{
		Addr:         cfg.Gateway.Addr,
		Handler:      srv.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Gateway starting", "addr", cfg.Gateway.Addr, "taskQueue", cfg.Temporal.TaskQueue)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalln("Gateway stopped", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", "error", err)
	}
	logger.Info("Gateway stopped")
}
