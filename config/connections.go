package config

import (
	"fmt"

	"github.com/relloyd/empetl/rdbms/shared"
)

// GetConnectionType returns the type saved for connectionName.
func (c *File) GetConnectionType(connectionName string) (string, error) {
	d, err := c.GetConnectionDetails(connectionName)
	if err != nil {
		return "", err
	}
	return d.Type, nil
}

// GetConnectionDetails fetches the generic connection details saved under connectionName.
func (c *File) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	d, err := c.LoadConnection(connectionName)
	if err != nil {
		if IsKeyNotFound(err) {
			return nil, fmt.Errorf("connection %q is not configured: use 'config conn add' to create it", connectionName)
		}
		return nil, err
	}
	if d.Type == "" {
		return nil, fmt.Errorf("unknown type for connection %q", connectionName)
	}
	return &d, nil
}

func (c *File) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	d := shared.ConnectionDetails{}
	err := c.Get(connectionName, &d)
	return d, err
}
