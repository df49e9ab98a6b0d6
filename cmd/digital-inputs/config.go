package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// daemonConfig is the effective configuration after merging flags and the
// optional config file.
type daemonConfig struct {
	Broker       string
	ServiceBase  string
	HTTPAddr     string
	SaveInterval time.Duration
	Settle       time.Duration
	Debug        bool
	Paths        []string
}

// fileConfig mirrors the YAML configuration file. Every field is optional;
// flags given explicitly on the command line win over file values.
type fileConfig struct {
	Broker        string `yaml:"broker"`
	ServiceBase   string `yaml:"servicebase"`
	HTTPAddr      string `yaml:"http_addr"`
	SaveIntervalS int    `yaml:"save_interval_s"`
	SettleS       int    `yaml:"settle_s"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &fc, nil
}

// mergeConfig overlays file values onto cfg for every flag the user did
// not set explicitly.
func mergeConfig(cfg daemonConfig, fc *fileConfig, set map[string]bool) daemonConfig {
	if fc == nil {
		return cfg
	}
	if fc.Broker != "" && !set["broker"] {
		cfg.Broker = fc.Broker
	}
	if fc.ServiceBase != "" && !set["servicebase"] {
		cfg.ServiceBase = fc.ServiceBase
	}
	if fc.HTTPAddr != "" && !set["http"] {
		cfg.HTTPAddr = fc.HTTPAddr
	}
	if fc.SaveIntervalS > 0 && !set["save-interval"] {
		cfg.SaveInterval = time.Duration(fc.SaveIntervalS) * time.Second
	}
	if fc.SettleS > 0 && !set["settle"] {
		cfg.Settle = time.Duration(fc.SettleS) * time.Second
	}
	return cfg
}
