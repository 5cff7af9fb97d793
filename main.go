package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/uptime-api/api/handlers"
	"github.com/linesmerrill/uptime-api/api/scheduler"
	"github.com/linesmerrill/uptime-api/config"
)

func main() {
	conf, err := config.New()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a := handlers.App{}
	a.Config = *conf
	if err := a.Initialize(); err != nil { // initialize data store and router
		zap.S().Fatalw("failed to initialize uptime-api", "error", err)
	}
	defer a.Close()

	var lock scheduler.Locker
	if a.Redis != nil {
		lock = scheduler.RedisLocker{Client: a.Redis}
	}
	s := scheduler.NewScheduler(a.Config, a.LogFiles, a.Manager, lock)
	s.Start()
	defer s.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zap.S().Errorw("graceful shutdown failed", "error", err)
		}
	}()

	zap.S().Infow("uptime-api is up and running",
		"port", a.Config.Port,
		"url", a.Config.BaseURL,
		"env", a.Config.Env,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Errorw("server stopped", "error", err)
	}
}
