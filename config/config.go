// Copyright 2024 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package config assembles database connection strings from structured
// settings read from a config file, .env files and the environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Section is the config file section holding the connection settings.
const Section = "hyena"

// EnvPrefix is the prefix of the environment variables overriding the
// settings, e.g. HYENA_SERVER.
const EnvPrefix = "HYENA"

// Config holds the settings a connection string is built from.
type Config struct {
	// Driver is the database/sql driver name, e.g. "sqlite3", "postgres",
	// "pgx", "mysql" or "sqlserver".
	Driver string

	Server   string
	Port     int
	Database string
	Username string
	Password string

	// IntegratedAuth authenticates as the operating system user instead of
	// with Username and Password.
	IntegratedAuth bool

	// MultipleActiveResultSets allows several open result sets on one
	// connection where the backend supports it. It defaults to true.
	MultipleActiveResultSets bool
}

// keys maps each setting to its key within Section.
var keys = []string{
	"driver",
	"server",
	"port",
	"database",
	"username",
	"password",
	"osauth",
	"multipleresultsets",
}

// Load reads the connection settings through v. The settings are looked up,
// from highest priority to lowest, in HYENA_* environment variables, in
// .env.local, in .env and in the "hyena" section of the config file.
//
// If configFile is empty, .hyena.yaml is searched for in the working
// directory, the home directory and ~/.config/hyena, and a missing file is
// not an error.
func Load(fs afero.Fs, v *viper.Viper, configFile string) (*Config, error) {
	// Variables already set are never overwritten, so the first file
	// defining a variable wins.
	if err := loadDotEnv(fs, ".env.local"); err != nil {
		return nil, err
	}
	if err := loadDotEnv(fs, ".env"); err != nil {
		return nil, err
	}

	v.SetFs(fs)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(".hyena")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "hyena"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "cannot read config")
		}
	}

	v.SetDefault(Section+".multipleresultsets", true)
	for _, key := range keys {
		if err := v.BindEnv(Section+"."+key, EnvPrefix+"_"+envName(key)); err != nil {
			return nil, errors.Wrapf(err, "cannot bind %s", key)
		}
	}

	return &Config{
		Driver:                   v.GetString(Section + ".driver"),
		Server:                   v.GetString(Section + ".server"),
		Port:                     v.GetInt(Section + ".port"),
		Database:                 v.GetString(Section + ".database"),
		Username:                 v.GetString(Section + ".username"),
		Password:                 v.GetString(Section + ".password"),
		IntegratedAuth:           v.GetBool(Section + ".osauth"),
		MultipleActiveResultSets: v.GetBool(Section + ".multipleresultsets"),
	}, nil
}

// envName returns the environment variable suffix of a setting.
func envName(key string) string {
	switch key {
	case "osauth":
		return "OS_AUTH"
	case "multipleresultsets":
		return "MULTIPLE_RESULT_SETS"
	}
	return strings.ToUpper(key)
}

// loadDotEnv copies the variables of a .env file into the environment.
// Variables that are already set keep their value. A missing file is not an
// error.
func loadDotEnv(fs afero.Fs, path string) error {
	if _, err := fs.Stat(path); err != nil {
		return nil
	}
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "cannot read %s", path)
	}
	env, err := godotenv.Unmarshal(string(content))
	if err != nil {
		return errors.Wrapf(err, "cannot parse %s", path)
	}
	for k, val := range env {
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}
