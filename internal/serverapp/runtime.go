package serverapp

import (
	"fmt"
	"log/slog"
	"os"
)

// Start launches the listener goroutine. Init must have succeeded first.
// Calling Start again on a running app returns the existing error channel.
func (a *App) Start() (<-chan error, error) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.initialized {
		return nil, fmt.Errorf("app is not initialized")
	}
	if a.started {
		return a.serverErrors, nil
	}

	a.serverErrors = startServer(a.cfg, a.logger, a.srv, a.serverAddr)
	a.started = true
	return a.serverErrors, nil
}

// WaitForStop blocks until an OS signal arrives or the server reports a
// fatal error, and says which one ended the wait.
func (a *App) WaitForStop(stop <-chan os.Signal, serverErrors <-chan error) (reason string, err error) {
	if serverErrors == nil {
		a.stateMu.Lock()
		serverErrors = a.serverErrors
		a.stateMu.Unlock()
	}
	if stop == nil && serverErrors == nil {
		return "", fmt.Errorf("nothing to wait on: both stop and serverErrors are nil")
	}

	logSignal := func(sig os.Signal) {
		if a.logger != nil {
			a.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		}
	}
	wrapServerErr := func(err error) error {
		if err == nil {
			return fmt.Errorf("server stopped unexpectedly")
		}
		return fmt.Errorf("server failed: %w", err)
	}

	if stop == nil {
		return "server_error", wrapServerErr(<-serverErrors)
	}
	if serverErrors == nil {
		logSignal(<-stop)
		return "signal", nil
	}

	select {
	case err := <-serverErrors:
		return "server_error", wrapServerErr(err)
	case sig := <-stop:
		logSignal(sig)
		return "signal", nil
	}
}
