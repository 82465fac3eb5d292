// v4
// main.go
// homesim: single-room home-automation simulator. Hourly ticks read synthetic
// sensors, rule-based control flips appliances, flips are journaled, and the
// journal reduces to per-appliance energy totals served over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"

	"homesim/internal/api"
	"homesim/internal/config"
	"homesim/internal/energy"
	"homesim/internal/feedpub"
	"homesim/internal/journal"
	"homesim/internal/logging"
	"homesim/internal/public"
	"homesim/internal/sim"
	"homesim/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	dual := logging.New(cfg.LogPath)
	defer dual.Close()
	logger := dual.Logger
	logger.Info("homesim starting", "rooms", cfg.Rooms, "dataDir", cfg.DataDir)

	jnl, err := journal.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Error("journal open failed", "err", err)
		os.Exit(1)
	}
	defer jnl.Close()

	sensors, err := storage.OpenSensorLog(cfg.DataDir, logger)
	if err != nil {
		logger.Error("sensor log open failed", "err", err)
		os.Exit(1)
	}
	defer sensors.Close()

	energyLog, err := storage.OpenEnergyLog(cfg.DataDir, logger)
	if err != nil {
		logger.Error("energy log open failed", "err", err)
		os.Exit(1)
	}

	state, err := sim.New(cfg.Rooms, cfg.BaseTemp, cfg.FeedSeed, cfg.TotalHours, jnl, sensors, energyLog, logger)
	if err != nil {
		logger.Error("simulation init failed", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transitions, err := public.New(public.Config{Brokers: cfg.KafkaBrokers, Topic: cfg.TransitionsTopic}, logger)
	if err != nil {
		logger.Error("transition publisher init failed", "err", err)
		os.Exit(1)
	}
	transitions.Start(ctx)
	state.SetTransitionPublisher(transitions)

	samples, err := feedpub.New(feedpub.Config{Broker: cfg.MQTTBroker, Topic: cfg.MQTTTopic, ClientID: cfg.MQTTClientID}, logger)
	if err != nil {
		logger.Error("sample publisher init failed", "err", err)
		os.Exit(1)
	}
	defer samples.Close()
	state.SetSamplePublisher(samples)

	reducer := energy.NewReducer(jnl, energyLog, cfg.Ratings, logger)
	agg := energy.NewAggregator(energyLog, cfg.BaselineTotal())

	server := api.NewServer(state, reducer, agg, sensors, logger)
	handler := handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, server.NewRouter()))
	srv := &http.Server{Addr: cfg.HTTPBind, Handler: handler}

	go func() {
		logger.Info("http listening", "addr", cfg.HTTPBind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	transitions.Stop(shutdownCtx)
	cancel()
	logger.Info("shutdown complete")
}
