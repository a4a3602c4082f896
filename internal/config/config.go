// Package config loads the engine's process-wide configuration: module
// search paths, broker/store connection coordinates, and orchestrator
// tick periods.
package config

import "time"

// Config is the fully-resolved application configuration.
type Config struct {
	Workflows []string `mapstructure:"workflows"`
	Libraries []string `mapstructure:"libraries"`

	Signal SignalConfig `mapstructure:"signal"`
	Store  StoreConfig  `mapstructure:"store"`
	Graph  GraphConfig  `mapstructure:"graph"`
	Celery map[string]any `mapstructure:"celery"`

	Extensions map[string]any `mapstructure:"extensions"`
}

// SignalConfig carries the signal bus broker's connection coordinates and
// the interval a blocking client polls its response key at.
type SignalConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Database    int           `mapstructure:"database"`
	Password    string        `mapstructure:"password"`
	PollingTime time.Duration `mapstructure:"polling_time"`
}

// StoreConfig carries the data store's connection coordinates.
type StoreConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database int    `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// GraphConfig carries the orchestrator tick periods.
type GraphConfig struct {
	WorkflowPollingTime time.Duration `mapstructure:"workflow_polling_time"`
	DagPollingTime      time.Duration `mapstructure:"dag_polling_time"`
}

// defaults mirrors the zero-config behavior: short, but nonzero, polling
// intervals so a misconfigured deployment degrades to a busy loop rather
// than hanging forever.
func defaults() *Config {
	return &Config{
		Signal: SignalConfig{
			Host:        "localhost",
			Port:        6379,
			PollingTime: 100 * time.Millisecond,
		},
		Store: StoreConfig{
			Host: "localhost",
			Port: 6379,
		},
		Graph: GraphConfig{
			WorkflowPollingTime: time.Second,
			DagPollingTime:      500 * time.Millisecond,
		},
	}
}
