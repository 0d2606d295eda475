// Package app wires the configuration, API client and session tracker into
// a runnable command-line application that requests one download and follows
// it to a terminal state.
package app

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/modelfetch/internal/api"
	"github.com/dmitrijs2005/modelfetch/internal/config"
	"github.com/dmitrijs2005/modelfetch/internal/flagx"
	"github.com/dmitrijs2005/modelfetch/internal/logging"
	"github.com/dmitrijs2005/modelfetch/internal/model"
	"github.com/dmitrijs2005/modelfetch/internal/tracker"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	tracker *tracker.Tracker
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(sl)

	client := api.NewHTTPClient(c.Endpoint, c.RequestTimeout)
	tr := tracker.New(c, client, nil, logger)

	return &App{config: c, logger: logger, tracker: tr}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// parseResource reads the resource coordinates from the command line.
func parseResource() (model.Resource, error) {
	var res model.Resource

	fs := flag.NewFlagSet("modelfetch", flag.ExitOnError)
	fs.StringVar(&res.URL, "url", "", "source URL of the file to fetch")
	fs.StringVar(&res.TargetCollection, "folder", "checkpoints", "destination folder on the backend")
	fs.StringVar(&res.TargetName, "name", "", "filename to store as (defaults to the URL basename)")

	args := flagx.FilterArgs(os.Args[1:], []string{"-url", "-folder", "-name"})
	if err := fs.Parse(args); err != nil {
		return res, err
	}
	if res.URL == "" {
		return res, fmt.Errorf("missing required -url")
	}
	return res, nil
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	res, err := parseResource()
	if err != nil {
		app.logger.Error(ctx, err.Error())
		return
	}

	app.tracker.Start(ctx)
	defer app.tracker.Close()

	id, err := app.tracker.RequestTransfer(ctx, res)
	if err != nil {
		app.logger.Error(ctx, "download request failed", "error", err)
		return
	}

	done := make(chan struct{})
	var once sync.Once

	unsubscribe := app.tracker.Subscribe(id, func(ev tracker.Event) {
		switch ev.Type {
		case tracker.EventUpdated:
			printProgress(ev)
			if ev.Session.Status.IsTerminal() {
				once.Do(func() { close(done) })
			}
		case tracker.EventRemoved:
			once.Do(func() { close(done) })
		}
	})
	defer unsubscribe()

	select {
	case <-ctx.Done():
		app.logger.Info(ctx, "interrupted", "session_id", id)
	case <-done:
	}

	app.tracker.Dispose(context.WithoutCancel(ctx), id)
}

func printProgress(ev tracker.Event) {
	s := ev.Session
	switch {
	case ev.StillWaiting:
		fmt.Printf("%s: still waiting for the server...\n", s.Resource.TargetName)
	case s.Status == model.StatusCompleted:
		fmt.Printf("%s: completed (%d bytes)\n", s.Resource.TargetName, s.Downloaded)
	case s.Status == model.StatusFailed || s.Status == model.StatusTimedOut:
		fmt.Printf("%s: %s: %s\n", s.Resource.TargetName, s.Status, s.LastError)
	case s.SizeKnown:
		fmt.Printf("%s: %d%% (%d/%d bytes)\n", s.Resource.TargetName, s.Percent, s.Downloaded, s.TotalSize)
	default:
		fmt.Printf("%s: %d bytes\n", s.Resource.TargetName, s.Downloaded)
	}
}
