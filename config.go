package main

import (
	"os"
	"path/filepath"

	"github.com/chzchzchz/padmap/internal/device"
	"github.com/chzchzchz/padmap/internal/store"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Store    string
	Listen   string
	Sysfs    string
	DevDir   string
	Remapper string
	Elevate  string
	Tray     bool
	Debug    bool
}

func addFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default $HOME/.config/padmap/padmap.yaml)")
	fs.String("store", store.DefaultPath(), "mapping file")
	fs.String("listen", "127.0.0.1:8765", "API listen address")
	fs.String("sysfs", device.DefaultSysfsRoot, "input class metadata directory")
	fs.String("devdir", device.DefaultDevDir, "input device node directory")
	fs.String("remapper", "xboxdrv", "remapper binary")
	fs.String("elevate", "pkexec", "privilege elevation command, empty to run directly")
	fs.Bool("tray", false, "show a system tray icon while serving")
	fs.Bool("debug", false, "log every captured event")
}

// loadConfig layers flags over PADMAP_* environment variables over the
// config file over defaults.
func loadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("padmap")
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("padmap")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "padmap"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	return &Config{
		Store:    v.GetString("store"),
		Listen:   v.GetString("listen"),
		Sysfs:    v.GetString("sysfs"),
		DevDir:   v.GetString("devdir"),
		Remapper: v.GetString("remapper"),
		Elevate:  v.GetString("elevate"),
		Tray:     v.GetBool("tray"),
		Debug:    v.GetBool("debug"),
	}, nil
}
