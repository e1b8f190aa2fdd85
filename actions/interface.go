package actions

import (
	"context"
	"time"

	"github.com/relloyd/empetl/rdbms/shared"
	"github.com/relloyd/empetl/transform"
)

type ConnectionLoader interface {
	LoadConnection(connectionName string) (shared.ConnectionDetails, error)
}

type ConnectionGetterSetter interface {
	Get(key string, out interface{}) error
	Set(key string, val interface{}) error
	Delete(key string) error
	GetAllKeys() ([]string, error)
}

type ConnectionValidator interface {
	Parse() error
	GetMap(m map[string]string) map[string]string
	GetScheme() (string, error)
}

// RunFunc executes one DAG run for the logical date.
type RunFunc func(ctx context.Context, logicalDate time.Time) (*transform.DagRun, error)
