// Package conf loads worker configuration from a yaml file with
// environment-variable expansion.
package conf

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Worker WorkerConfig `mapstructure:"worker"`
	Log    LogConfig    `mapstructure:"log"`
}

type WorkerConfig struct {
	// Timeout is the default time budget per task. Zero disables it. A
	// task-level explicit timeout always wins over this value.
	Timeout time.Duration `mapstructure:"timeout"`

	// CheckUnfulfilledDeps verifies dependencies before invoking run.
	CheckUnfulfilledDeps bool `mapstructure:"check_unfulfilled_deps"`

	// CheckCompleteOnRun re-checks the completion predicate after a
	// successful run.
	CheckCompleteOnRun bool `mapstructure:"check_complete_on_run"`

	// TerminateWait bounds the post-terminate confirmation wait.
	TerminateWait time.Duration `mapstructure:"terminate_wait"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Worker: WorkerConfig{
			Timeout:              0,
			CheckUnfulfilledDeps: true,
			CheckCompleteOnRun:   false,
			TerminateWait:        time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads a yaml configuration file. Values containing ${VAR} are
// expanded from the environment. Missing keys fall back to defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	c := Default()
	if err := v.Unmarshal(c); err != nil {
		return nil, err
	}
	return c, nil
}
