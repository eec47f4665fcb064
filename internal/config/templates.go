package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Marshal renders cfg in the file layout read by Load.
func Marshal(cfg Config) ([]byte, error) {
	out := fileConfig{
		Server: fileServer{
			Name:           cfg.Server.Name,
			Addr:           cfg.Server.Addr,
			CorsOrigins:    cfg.Server.CorsOrigins,
			TrustedProxies: cfg.Server.TrustedProxies,
		},
		Limits: fileLimits{
			MaxDepth:        cfg.Limits.MaxDepth,
			MaxListSize:     cfg.Limits.MaxListSize,
			MaxMapSize:      cfg.Limits.MaxMapSize,
			MaxStringLength: cfg.Limits.MaxStringLength,
			MaxBytesLength:  cfg.Limits.MaxBytesLength,
			AllowNaN:        cfg.Limits.AllowNaN,
			AllowInfinity:   cfg.Limits.AllowInfinity,
			MaxFrameBytes:   cfg.Frame.MaxPayloadBytes,
		},
		Log: fileLog{Level: cfg.LogLevel},
	}
	data, err := toml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("config render failed: %w", err)
	}
	return data, nil
}

// Template is the default configuration as TOML.
func Template() ([]byte, error) {
	return Marshal(Default())
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, template, 0o600)
}
