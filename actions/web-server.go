package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relloyd/empetl/helper"
	"github.com/relloyd/empetl/logger"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/transform"
)

// TriggerFunc starts a run for logicalDate without waiting for it to finish.
type TriggerFunc func(logicalDate time.Time)

type WebServerConfig struct {
	Scheme   string                     `errorTxt:"scheme" mandatory:"no"`
	Addr     net.IP                     `errorTxt:"address" mandatory:"no"`
	Port     int                        `errorTxt:"port" mandatory:"no"` // 0 picks a free port.
	Registry *transform.SafeRunRegistry `errorTxt:"run registry" mandatory:"yes"`
	Metrics  *stats.Metrics             `errorTxt:"metrics" mandatory:"yes"`
	Trigger  TriggerFunc
	Now      func() time.Time
}

// RunWebServer serves the run status API until ctx is done.
func RunWebServer(ctx context.Context, log logger.Logger, web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	srv, chanErr := runServer(log, web)
	return waitForServer(ctx, log, srv, chanErr)
}

func newRouter(log logger.Logger, web *WebServerConfig) *mux.Router {
	now := web.Now
	if now == nil {
		now = time.Now
	}
	r := mux.NewRouter()
	r.Path("/health").HandlerFunc(GetHandlerHealth(log))
	r.Path("/runs").Methods(http.MethodGet).HandlerFunc(GetHandlerRunList(log, web.Registry))
	r.Path("/runs/trigger").Methods(http.MethodPost).HandlerFunc(GetHandlerRunTrigger(log, web.Trigger, now))
	r.Path("/runs/{runId}/status").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStatus(log, web.Registry))
	r.Path("/metrics").Handler(promhttp.HandlerFor(web.Metrics.Registry, promhttp.HandlerOpts{}))
	return r
}

// runServer starts a web server and returns it along with a channel that
// receives an error if the listener fails.
func runServer(log logger.Logger, web *WebServerConfig) (*http.Server, chan error) {
	chanErr := make(chan error, 1)
	host := ""
	if web.Addr != nil {
		host = web.Addr.String()
	}
	srv := &http.Server{
		Addr:         net.JoinHostPort(host, strconv.Itoa(web.Port)),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(log, web),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				chanErr <- err
			}
		}
	}()
	scheme := web.Scheme
	if scheme == "" {
		scheme = "http"
	}
	log.Info(fmt.Sprintf("Listening on %v://%v", strings.ToLower(scheme), srv.Addr))
	return srv, chanErr
}

func waitForServer(ctx context.Context, log logger.Logger, srv *http.Server, chanErr chan error) error {
	select {
	case err := <-chanErr:
		return errors.Wrap(err, "web server failed")
	case <-ctx.Done():
	}
	log.Info("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return srv.Shutdown(shutdownCtx) // waits for open connections until the deadline.
}
