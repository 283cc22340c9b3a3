package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/urfave/cli/v3"

	"github.com/openpress/ftsearch/pkg/api"
	"github.com/openpress/ftsearch/pkg/host"
	"github.com/openpress/ftsearch/pkg/log"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the search API server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "Listen address (overrides config)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("listen"))
		},
	}
}

// serve runs the HTTP API until interrupted. The config file is watched so
// a changed file restarts the stack without killing the process; editors
// replace files atomically, hence the rename/remove handling.
func serve(ctx context.Context, configPath, listenOverride string) error {
	logger := log.ForService("serve")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("config file watcher unavailable: %v", err)
	} else {
		defer func() {
			_ = watcher.Close()
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("cannot watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("watching config file for changes: %s", configPath)
		}
	}

	for {
		reload, err := serveOnce(ctx, configPath, listenOverride, sigCh, watcher)
		if err != nil {
			return err
		}
		if !reload {
			return nil
		}
		logger.Infof("reloading configuration")
	}
}

// serveOnce builds the stack from the current config and blocks until
// shutdown (reload=false) or a config change/SIGHUP (reload=true).
func serveOnce(ctx context.Context, configPath, listenOverride string, sigCh chan os.Signal, watcher *fsnotify.Watcher) (bool, error) {
	logger := log.ForService("serve")

	comps, err := buildComponents(ctx, configPath)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = comps.Close()
	}()

	// Standalone deployments raise events through the in-process registry;
	// embedded deployments would pass the host's own registry instead.
	hooks := host.NewHooks()
	comps.coordinator.RegisterHooks(hooks)

	addr := comps.cfg.Server.Addr
	if listenOverride != "" {
		addr = listenOverride
	}

	mux := http.NewServeMux()
	server := api.NewServer(comps.searchService, comps.coordinator, comps.reader, comps.cfg.Search.PerPage)
	server.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}

	var events chan fsnotify.Event
	var watchErrs chan error
	if watcher != nil {
		events = watcher.Events
		watchErrs = watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			shutdown()
			return false, nil
		case err := <-errCh:
			return false, fmt.Errorf("http server: %w", err)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				shutdown()
				return true, nil
			}
			fmt.Println("\nShutting down...")
			shutdown()
			return false, nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			logger.Infof("config file changed: %s (%s)", event.Name, event.Op)
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("config file removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("re-adding config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			shutdown()
			return true, nil
		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			logger.Warnf("config file watcher: %v", err)
		}
	}
}
