package transform

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/relloyd/empetl/logger"
)

// SetupCleanupOnSignal cancels the context behind cancelFunc on CTRL-C or SIGTERM so in-flight DAG runs stop.
// Call the returned func to stop listening.
func SetupCleanupOnSignal(log logger.Logger, cancelFunc context.CancelFunc) (stop func()) {
	c := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case x := <-c:
			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Println() // add return char for a clean CLI look n feel.
			}
			log.Info("Caught ", x.String())
			log.Info("Shutting down...")
			cancelFunc()
		case <-done:
		}
	}()
	once := sync.Once{}
	return func() {
		once.Do(func() {
			signal.Stop(c)
			close(done)
		})
	}
}
