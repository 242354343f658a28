// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package config

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// DriverName returns the database/sql driver name for c.Driver, accepting
// common aliases.
func (c *Config) DriverName() string {
	switch d := strings.ToLower(strings.TrimSpace(c.Driver)); d {
	case "sqlite":
		return "sqlite3"
	case "postgresql":
		return "postgres"
	case "mssql":
		return "sqlserver"
	default:
		return d
	}
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() (string, error) {
	switch driver := c.DriverName(); driver {
	case "":
		return "", errors.New("no driver configured")
	case "sqlite3":
		if c.Database == "" {
			return "", errors.New("sqlite3 needs a database file")
		}
		return c.Database, nil
	case "mysql":
		return c.mysqlDSN()
	case "postgres", "pgx":
		return c.postgresDSN()
	case "sqlserver":
		return c.sqlServerDSN()
	default:
		return "", errors.Errorf("unsupported driver %q", driver)
	}
}

// RedactedDSN returns the connection string with the password masked, for
// display.
func (c *Config) RedactedDSN() (string, error) {
	redacted := *c
	if redacted.Password != "" {
		redacted.Password = "xxxxx"
	}
	return redacted.DSN()
}

func (c *Config) address(sep string) string {
	switch {
	case c.Port == 0:
		return c.Server
	case sep == ":":
		return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
	default:
		return c.Server + sep + strconv.Itoa(c.Port)
	}
}

func (c *Config) mysqlDSN() (string, error) {
	if c.IntegratedAuth {
		return "", errors.New("mysql does not support integrated authentication")
	}
	if c.Server == "" {
		return "", errors.New("mysql needs a server")
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = c.address(":")
	cfg.DBName = c.Database
	cfg.User = c.Username
	cfg.Passwd = c.Password
	return cfg.FormatDSN(), nil
}

func (c *Config) postgresDSN() (string, error) {
	if c.Server == "" {
		return "", errors.New("postgres needs a server")
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   c.address(":"),
		Path:   "/" + c.Database,
	}
	if !c.IntegratedAuth && c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	return u.String(), nil
}

// sqlServerDSN builds an ADO style connection string.
func (c *Config) sqlServerDSN() (string, error) {
	if c.Server == "" {
		return "", errors.New("sqlserver needs a server")
	}
	var parts []string
	add := func(k, v string) {
		parts = append(parts, k+"="+quoteADO(v))
	}
	add("Data Source", c.address(","))
	if c.Database != "" {
		add("Initial Catalog", c.Database)
	}
	if c.IntegratedAuth {
		add("Integrated Security", "True")
	} else {
		if c.Username != "" {
			add("User ID", c.Username)
		}
		if c.Password != "" {
			add("Password", c.Password)
		}
	}
	if c.MultipleActiveResultSets {
		add("MultipleActiveResultSets", "True")
	} else {
		add("MultipleActiveResultSets", "False")
	}
	return strings.Join(parts, ";"), nil
}

// quoteADO quotes a connection string value if it contains characters that
// would otherwise end or confuse it.
func quoteADO(v string) string {
	if !strings.ContainsAny(v, ";=\"'") && strings.TrimSpace(v) == v {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
