package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/ystepanoff/e012tx"
	"github.com/ystepanoff/e012tx/api"
	"github.com/ystepanoff/e012tx/config"
)

func runCommand(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	logCloser, err := setupLogging(cfg.Log)
	if err != nil {
		return err
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	link, err := e012tx.Open(cfg)
	if err != nil {
		return err
	}
	link.OnBindState(func(remaining time.Duration) {
		if remaining == 0 {
			log.Info("bound, transmitting")
			return
		}
		log.WithField("remaining", remaining).Info("binding")
	})
	if err := link.Init(); err != nil {
		link.Close()
		return err
	}

	var srv *api.Server
	errc := make(chan error, 1)
	if cfg.API.Listen != "" {
		srv = api.NewServer(cfg.API.Listen, api.NewHandler(link, link.Inputs))
		go func() { errc <- srv.ListenAndServe() }()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		log.WithField("signal", s).Info("shutting down")
	case err = <-errc:
		log.WithError(err).Error("control API stopped")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		srv.Shutdown(shutdownCtx)
		cancel()
	}
	if cerr := link.Close(); cerr != nil {
		log.WithError(cerr).Warn("transceiver close failed")
	}
	return err
}
