package db

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseConnectionString parses a PostgreSQL URI (bare or driver-qualified)
// into a ConnectionConfig.
//
// Format: postgresql://[user[:password]@][host][:port][/dbname][?param1=value1&...]
func ParseConnectionString(connStr string) (*ConnectionConfig, error) {
	if connStr == "" {
		return nil, fmt.Errorf("connection string is empty")
	}

	if !strings.HasPrefix(connStr, "postgresql://") &&
		!strings.HasPrefix(connStr, "postgres://") &&
		!strings.HasPrefix(connStr, DriverQualifiedPrefix) {
		return nil, fmt.Errorf("unrecognized connection string scheme")
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL URI: %w", err)
	}

	config := &ConnectionConfig{
		Host:             "localhost",
		Port:             5432,
		Database:         "postgres",
		AdditionalParams: make(map[string]string),
	}

	if u.Hostname() != "" {
		config.Host = u.Hostname()
	}
	if u.Port() != "" {
		port, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port: %w", err)
		}
		config.Port = port
	}

	if u.User != nil {
		config.Username = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			config.Password = pass
		}
	}

	if len(u.Path) > 1 {
		config.Database = strings.TrimPrefix(u.Path, "/")
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]

		if strings.EqualFold(key, "sslmode") {
			config.SSLMode = value
			continue
		}
		config.AdditionalParams[key] = value
	}

	return config, nil
}
