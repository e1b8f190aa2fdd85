package cmd

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/relloyd/empetl/actions"
	"github.com/relloyd/empetl/helper"
)

// startLambda handles each invocation, usually from an hourly EventBridge rule, with one DAG run.
func startLambda() {
	logLevel = helper.ReadValueFromEnvWithDefault(envVarLogLevel, logLevel)
	stackDumpOnPanic = os.Getenv(envVarStackDump) != ""
	lambda.Start(lambdaHandler(time.Now))
}

func lambdaHandler(now func() time.Time) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log := newLogger()
		ld := actions.LogicalDateFor(now())
		if logicalDateStr != "" { // pinned by EMPETL_LOGICAL_DATE.
			var err error
			if ld, err = parseLogicalDate(logicalDateStr, now); err != nil {
				return err
			}
		}
		log.Info("lambda invocation for logical date ", ld.Format(time.RFC3339))
		if err := runEtlOnce(ctx, log, getConnectionLoader(), ld); err != nil {
			log.Error("Error: ", err)
			return err
		}
		return nil
	}
}
