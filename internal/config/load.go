package config

// This file layers configuration with viper: defaults from DefaultConfig,
// then an optional YAML file, then RELIVE_* environment variables, then any
// flags the caller bound to v before calling Load.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the config file base name searched for when --config is not given.
const FileName = "relive-compress"

// EnvPrefix prefixes environment overrides, e.g. RELIVE_ENGINE_CODEC.
const EnvPrefix = "RELIVE"

// SetDefaults registers every key of d with v so that environment variables
// and Unmarshal see the full key set even when no config file exists.
func SetDefaults(v *viper.Viper, d Config) {
	v.SetDefault("dir", d.Dir)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("temp_suffix", d.TempSuffix)

	v.SetDefault("timestamp.source", string(d.Timestamp.Source))
	v.SetDefault("timestamp.prefix", d.Timestamp.Prefix)
	v.SetDefault("timestamp.timezone", d.Timestamp.TimeZone)

	v.SetDefault("watermark.backend", string(d.Watermark.Backend))
	v.SetDefault("watermark.path", d.Watermark.Path)
	v.SetDefault("watermark.hidden", d.Watermark.Hidden)

	v.SetDefault("engine.binary", d.Engine.Binary)
	v.SetDefault("engine.codec", d.Engine.Codec)
	v.SetDefault("engine.preset", d.Engine.Preset)
	v.SetDefault("engine.bitrate", d.Engine.Bitrate)
	v.SetDefault("engine.maxrate", d.Engine.MaxRate)
	v.SetDefault("engine.bufsize", d.Engine.BufSize)
	v.SetDefault("engine.extra_args", d.Engine.ExtraArgs)
	v.SetDefault("engine.timeout", d.Engine.Timeout)
	v.SetDefault("engine.priority", string(d.Engine.Priority))
	v.SetDefault("engine.verify_output", d.Engine.VerifyOutput)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.color", string(d.Log.Color))

	v.SetDefault("assume_yes", d.AssumeYes)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("reset_watermark", d.ResetWatermark)
	v.SetDefault("no_pause", d.NoPause)
	v.SetDefault("check", d.CheckOnly)
}

// Load builds a Config from v. When configFile is empty the file is
// optional and searched for in the working directory and
// $HOME/.config/relive-compress; an explicit configFile must exist.
func Load(v *viper.Viper, configFile string) (Config, error) {
	cfg := DefaultConfig()
	SetDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Dir = NormalizeDirArg(cfg.Dir)
	return cfg, nil
}
