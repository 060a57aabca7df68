package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"chain-calculator/internal/config"
	"chain-calculator/internal/db"
	"chain-calculator/internal/grpc"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/server"
)

func main() {
	config.InitConfig(".env")
	logger.InitServerLogger()
	defer logger.CloseLogger()

	store, err := db.Open(config.AppConfig)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	httpServer := &http.Server{
		Addr:              ":" + config.AppConfig.ServerPort,
		Handler:           server.NewRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.LogINFO("HTTP server listening on port " + config.AppConfig.ServerPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// gRPC sits on the port after the HTTP one.
	httpPort, err := strconv.Atoi(config.AppConfig.ServerPort)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("SERVER_PORT must be numeric")
	}
	grpcServer, err := grpc.StartGRPCServer(fmt.Sprintf(":%d", httpPort+1), store)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to start gRPC server")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.LogINFO("Shutdown signal received, stopping servers")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.LogERROR("HTTP shutdown: " + err.Error())
	}
	grpcServer.GracefulStop()

	logger.LogINFO("Server stopped")
}
