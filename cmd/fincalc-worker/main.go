package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fincalc/internal/amqp"
	"fincalc/internal/cli"
	"fincalc/internal/config"
	"fincalc/internal/log"
	"fincalc/internal/services"
)

func main() {
	cfg, logger := cli.MustBootstrap((*config.Config).ValidateWorker)
	logger = logger.WithComponent(log.ComponentWorker)

	logger.Info("Starting fincalc-worker",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		"prefetch", cfg.AMQPPrefetch)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
		amqp.WithPrefetch(cfg.AMQPPrefetch),
		amqp.WithLogger(logger))
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer client.Close()

	dispatcher := amqp.NewDispatcher(services.NewCalculator(logger), logger)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ServeWithReconnect(gctx, dispatcher.Handle)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully", log.FieldOperation, log.OpShutdown)
}
