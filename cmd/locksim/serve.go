// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/db47h/locksim/server"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulator and serve its register bus over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := setup(cmd)
		s := build(cfg)
		defer s.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(s.Bridge(), s.Table(), cfg.CSR.DataWidth)
		srv.Status = func() server.Status {
			txs, errs := s.Bridge().Interconnect().Stats()
			return server.Status{Cycle: s.Circuit().Cycle(), Transactions: txs, Errors: errs}
		}
		hs := &http.Server{Addr: cfg.Addr, Handler: srv.Handler()}

		clock := make(chan error, 1)
		go func() { clock <- s.Run(ctx, cfg.ClockHz) }()

		serve := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.Addr).Info("serve: listening")
			serve <- hs.ListenAndServe()
		}()

		var err error
		select {
		case <-ctx.Done():
		case err = <-serve:
			stop()
		}
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if e := hs.Shutdown(sctx); e != nil {
			log.WithError(e).Warn("serve: shutdown")
		}
		<-clock
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "serve")
		}
		log.Info("serve: stopped")
		return nil
	},
}
