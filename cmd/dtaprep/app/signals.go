package app

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/sonemaro/dtaprep/pkg/logger"
)

// signalState tracks the state of signal handling
type signalState struct {
	shutdownInitiated atomic.Bool
}

// HandleSignals returns a context cancelled on the first SIGINT or SIGTERM.
// A second signal stops the progress display and exits immediately. The
// returned function releases the handler.
func (a *App) HandleSignals(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	state := &signalState{}

	a.log.Debug("Initializing signal handlers")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go a.handleSignals(sigChan, done, cancel, state)

	return ctx, func() {
		signal.Stop(sigChan)
		close(done)
		cancel()
	}
}

func (a *App) handleSignals(sigChan <-chan os.Signal, done <-chan struct{}, cancel context.CancelFunc, state *signalState) {
	for {
		select {
		case <-done:
			return
		case sig := <-sigChan:
			a.log.WithFields(logger.Fields{
				"signal": sig.String(),
			}).Debug("Received system signal")

			if !state.shutdownInitiated.CompareAndSwap(false, true) {
				a.handleForcedShutdown()
				return
			}

			a.log.Warn("Interrupt received, finishing the current files")
			cancel()
		}
	}
}

// handleForcedShutdown performs an immediate shutdown
func (a *App) handleForcedShutdown() {
	a.log.Warn("Received second interrupt, exiting")

	a.progress.Stop()
	a.status("[+] Exiting")
	os.Exit(130)
}
