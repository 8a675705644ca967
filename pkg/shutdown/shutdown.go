package shutdown

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"go.uber.org/multierr"
)

// Closer - resource released on shutdown, such as a dbx.Conn releasing its cached statements.
type Closer interface {
	Close(ctx context.Context) error
}

// WaitForShutdown waits for OS signals (SIGINT, SIGTERM) to gracefully shut down the application.
// It runs the cleanup code provided by the cleanupCallback function within a context with a specified timeout.
//
// Parameters:
//   - rootCtx: The parent context.
//   - timeoutMilli: The timeout duration in milliseconds to wait for the cleanup callback to complete.
//   - cleanupCallback: A function that contains the cleanup code to execute during shutdown, and that takes a timeoutCtx.
//
// Usage:
//
//	shutdown.WaitForShutdown(context.Background(), 5000, func(timeoutCtx context.Context) {
//	    if err := shutdown.CloseAll(timeoutCtx, conn); err != nil {
//	        logx.GetLogger().LogWarning(timeoutCtx, "statements not released", err)
//	    }
//	})
func WaitForShutdown(rootCtx context.Context, timeoutMilli int64, cleanupCallback func(timeoutCtx context.Context)) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	waitForSignal(rootCtx, signals, time.Duration(timeoutMilli)*time.Millisecond, cleanupCallback)
}

// waitForSignal blocks until a signal arrives on signals or rootCtx is done, then runs the cleanup.
func waitForSignal(rootCtx context.Context, signals <-chan os.Signal, timeout time.Duration, cleanupCallback func(timeoutCtx context.Context)) {
	select {
	case sig := <-signals:
		logx.GetLogger().LogDebug(rootCtx, fmt.Sprintf("Interrupt signal captured: %s", sig.String()))
	case <-rootCtx.Done():
		logx.GetLogger().LogDebug(rootCtx, "Root context done, shutting down")
	}

	// The cleanup gets its own deadline even when rootCtx is already cancelled.
	timeoutCtx, cancel := context.WithTimeout(context.WithoutCancel(rootCtx), timeout)
	defer cancel()

	cleanUp(timeoutCtx, cleanupCallback)
}

// cleanUp executes the provided cleanup callback function and logs the result.
// It waits for either the cleanup to complete or the context to be cancelled.
func cleanUp(timeoutCtx context.Context, cleanupCallback func(timeoutCtx context.Context)) {
	logx.GetLogger().LogInfo(timeoutCtx, "Cleaning up all resources ....")

	done := make(chan struct{})

	go func() {
		defer close(done)
		if cleanupCallback != nil {
			cleanupCallback(timeoutCtx)
		}
	}()

	select {
	case <-timeoutCtx.Done():
		logx.GetLogger().LogError(timeoutCtx, "Deadline exceeded during context cancellation", timeoutCtx.Err())
	case <-done:
		logx.GetLogger().LogInfo(timeoutCtx, "All resources cleaned up")
	}
}

// CloseAll closes every closer in order, even when some fail, and returns the combined failures.
func CloseAll(ctx context.Context, closers ...Closer) error {
	var err error
	for _, c := range closers {
		if c == nil {
			continue
		}
		err = multierr.Append(err, c.Close(ctx))
	}

	return err
}

// RunTaskWithContextCancellationCheck executes a task and provides a mechanism to notify the task of impending cancellation.
// The function listens for system signals (SIGTERM, SIGINT) and closes terminateSignal, giving the task the
// chance to stop gracefully before its context is cancelled.
//
// Usage:
//
//	shutdown.RunTaskWithContextCancellationCheck(context.Background(), func(cancelCtx context.Context, terminateSignal chan struct{}) error {
//	    for {
//	        select {
//	        case <-cancelCtx.Done():
//	            return cancelCtx.Err()
//	        case <-terminateSignal:
//	            return nil
//	        }
//	    }
//	})
func RunTaskWithContextCancellationCheck(rootCtx context.Context, task func(cancelCtx context.Context, terminateSignal chan struct{}) error) {
	cancelCtx, cancel := context.WithCancel(rootCtx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigs)

	terminateSignal := make(chan struct{})
	taskCompleted := make(chan error, 1)

	go func() {
		taskCompleted <- task(cancelCtx, terminateSignal)
	}()

	select {
	case sig := <-sigs:
		logx.GetLogger().LogInfo(cancelCtx, fmt.Sprintf("Received signal: %s", sig))
		close(terminateSignal)
		<-taskCompleted
	case err := <-taskCompleted:
		if err != nil {
			logx.GetLogger().LogError(cancelCtx, "Task error", err)
		}
	}
}
