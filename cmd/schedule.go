package cmd

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/relloyd/empetl/actions"
	c "github.com/relloyd/empetl/constants"
	"github.com/relloyd/empetl/stats"
	"github.com/relloyd/empetl/transform"
	"github.com/spf13/cobra"
)

var scheduleCfg = struct {
	StartDate string
	Addr      net.IP
	Port      int
}{
	StartDate: c.DagStartDate,
	Addr:      net.IP{0, 0, 0, 0},
	Port:      c.DefaultWebPort,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run " + c.DagIdEtl + " every hour and serve its status",
	Long: fmt.Sprintf(`Run %v at the top of every hour in UTC until interrupted.

Each run processes the previous hour. Missed intervals are not replayed and runs never overlap.
A web service lists recent runs, shows the status of a run, accepts manual triggers and exposes
Prometheus metrics:

  GET  /health
  GET  /runs
  GET  /runs/{runId}/status
  POST /runs/trigger[?logicalDate=<RFC3339>]
  GET  /metrics`, c.DagIdEtl),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSchedule()
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	scheduleCmd.Flags().SortFlags = false
	addEtlFlags(scheduleCmd)
	switches.addFlag(scheduleCmd, &scheduleCfg.StartDate, "start-date", scheduleCfg.StartDate, false, "")
	switches.addFlag(scheduleCmd, &scheduleCfg.Port, "port", strconv.Itoa(scheduleCfg.Port), false, "")
	if !twelveFactorMode {
		scheduleCmd.Flags().IPVarP(&scheduleCfg.Addr, "address", "a", scheduleCfg.Addr, "Address to listen on")
	}
}

func runSchedule() error {
	log := newLogger()
	startDate, err := time.Parse(time.RFC3339, scheduleCfg.StartDate)
	if err != nil {
		return fmt.Errorf("invalid start date %q, use RFC3339 format: %w", scheduleCfg.StartDate, err)
	}
	etlCfg.LogLevel = logLevel
	etlCfg.StackDumpOnPanic = stackDumpOnPanic
	etlCfg.StartDate = startDate
	etlCfg.WebPort = scheduleCfg.Port
	if err := etlCfg.Validate(log); err != nil {
		return err
	}
	deps, err := actions.OpenEtlDeps(log, etlCfg, getConnectionLoader())
	if err != nil {
		return err
	}
	defer deps.Close()
	metrics := stats.NewMetrics()
	registry := transform.NewSafeRunRegistry(c.DefaultRunHistory)
	runFn := actions.NewEtlRunFunc(log, etlCfg, deps, metrics, registry)
	s, err := actions.NewScheduler(log, runFn, actions.SchedulerOptions{
		StartDate: etlCfg.StartDate,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := transform.SetupCleanupOnSignal(log, cancel)
	defer stop()
	s.Start(ctx)
	defer s.Stop()
	if etlCfg.WebPort == 0 {
		log.Info("web service disabled")
		<-ctx.Done()
		return nil
	}
	return actions.RunWebServer(ctx, log, &actions.WebServerConfig{
		Scheme:   "http",
		Addr:     scheduleCfg.Addr,
		Port:     etlCfg.WebPort,
		Registry: registry,
		Metrics:  metrics,
		Trigger: func(logicalDate time.Time) {
			if _, err := s.TriggerNow(logicalDate); err != nil {
				log.Error("triggered run for ", logicalDate.Format(time.RFC3339), " failed: ", err)
			}
		},
	})
}
