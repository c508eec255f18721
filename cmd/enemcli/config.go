package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type cliConfig struct {
	Server  string `mapstructure:"server"`
	ExamAPI string `mapstructure:"exam_api"`
	DataDir string `mapstructure:"data_dir"`
	Debug   bool   `mapstructure:"debug"`

	TimeoutSeconds int           `mapstructure:"timeout_seconds"`
	Timeout        time.Duration `mapstructure:"-"`
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".enemcli"
	}
	return filepath.Join(dir, "enemcli")
}

// loadConfig reads enemcli.yaml from file (when given), the data dir or the working
// directory, then ENEMCLI_* variables. A missing file is fine.
func loadConfig(file string) (cliConfig, error) {
	v := viper.New()
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("exam_api", "")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("timeout_seconds", 15)
	v.SetDefault("debug", false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("enemcli")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultDataDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("ENEMCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cliConfig{}, err
		}
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, err
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")
	if cfg.ExamAPI == "" {
		cfg.ExamAPI = cfg.Server + "/api"
	}
	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	return cfg, nil
}
