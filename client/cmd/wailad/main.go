// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// wailad resolves payment strings over HTTP and warns when Lightning payments
// are left in flight in the wallet engine's store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"paywaila.org/waila/client/app"
	"paywaila.org/waila/client/core"
	"paywaila.org/waila/client/metrics"
	"paywaila.org/waila/client/webserver"
	"paywaila.org/waila/wallet"
)

// appName defines the application name.
const appName = "wailad"

var log wallet.Logger

func main() {
	// Wrap the actual main so defers run in it.
	cfg, err := configure()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	if err = runCore(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func runCore(cfg *app.Config) error {
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel() // don't leak on the earliest returns

	// Initialize logging.
	utc := !cfg.LocalLogs
	logMaker, closeLogger, err := app.InitLogging(cfg.LogPath, cfg.DebugLevel, !cfg.NoStdout, utc)
	if err != nil {
		return err
	}
	defer closeLogger()
	log = logMaker.Logger("WAILA")
	log.Info(app.VersionString(appName))
	if utc {
		log.Infof("Logging with UTC time stamps. Current local time is %v",
			time.Now().Local().Format("15:04:05 MST"))
	}
	log.Infof("%s starting for network: %s", appName, cfg.Net)

	defer func() {
		if pv := recover(); pv != nil {
			log.Criticalf("Uh-oh! \n\nPanic:\n\n%v\n\nStack:\n\n%v\n\n",
				pv, string(debug.Stack()))
		}
	}()

	// Metrics go to a private registry served by the web server.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewPrometheusRecorder(reg)
	if err != nil {
		return fmt.Errorf("error creating metrics recorder: %w", err)
	}

	// Prepare the Core.
	clientCore, err := core.New(cfg.Core(logMaker, rec))
	if err != nil {
		return fmt.Errorf("error creating client core: %w", err)
	}

	// Catch interrupt signal (e.g. ctrl+c).
	killChan := make(chan os.Signal, 1)
	signal.Notify(killChan, os.Interrupt)
	defer signal.Stop(killChan)
	go func() {
		select {
		case <-killChan:
			log.Infof("Shutting down...")
			cancel()
		case <-appCtx.Done():
		}
	}()

	runners := map[string]wallet.Runner{"core": clientCore}
	if !cfg.NoWeb {
		webSrv, err := webserver.New(cfg.Web(clientCore, logMaker.Logger("WEB"), reg))
		if err != nil {
			return fmt.Errorf("failed creating web server: %w", err)
		}
		runners["web server"] = webSrv
	}

	// Wait for everything to stop.
	err = runAll(appCtx, runners)
	log.Info("Exiting wailad main.")
	return err
}

// runAll runs the Runners until ctx is canceled. A Runner that returns before
// shutdown has failed, e.g. a web server that can't listen, and stops the
// others.
func runAll(ctx context.Context, runners map[string]wallet.Runner) error {
	g, ctx := errgroup.WithContext(ctx)
	for name, r := range runners {
		name, r := name, r
		g.Go(func() error {
			r.Run(ctx)
			if ctx.Err() == nil {
				return fmt.Errorf("%s stopped unexpectedly", name)
			}
			return nil
		})
	}
	return g.Wait()
}
