package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/crosspacket/internal/logging"
	"github.com/danmuck/crosspacket/internal/protocol"
	"github.com/danmuck/crosspacket/internal/protocol/frame"
)

// Config is the packetd / packetctl configuration.
type Config struct {
	Server   ServerConfig
	Limits   protocol.Limits
	Frame    frame.Limits
	LogLevel string
}

type ServerConfig struct {
	Name           string
	Addr           string
	CorsOrigins    []string
	TrustedProxies []string
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Name:           "packetd",
			Addr:           ":9200",
			CorsOrigins:    []string{"http://localhost:3000"},
			TrustedProxies: []string{"127.0.0.1", "::1"},
		},
		Limits:   protocol.DefaultLimits(),
		Frame:    frame.DefaultLimits(),
		LogLevel: "info",
	}
}

type fileConfig struct {
	Server fileServer `toml:"server"`
	Limits fileLimits `toml:"limits"`
	Log    fileLog    `toml:"log"`
}

type fileServer struct {
	Name           string   `toml:"name"`
	Addr           string   `toml:"addr"`
	CorsOrigins    []string `toml:"cors_origins"`
	TrustedProxies []string `toml:"trusted_proxies"`
}

type fileLimits struct {
	MaxDepth        int    `toml:"max_depth"`
	MaxListSize     int    `toml:"max_list_size"`
	MaxMapSize      int    `toml:"max_map_size"`
	MaxStringLength int    `toml:"max_string_length"`
	MaxBytesLength  int    `toml:"max_bytes_length"`
	AllowNaN        bool   `toml:"allow_nan"`
	AllowInfinity   bool   `toml:"allow_infinity"`
	MaxFrameBytes   uint64 `toml:"max_frame_bytes"`
}

type fileLog struct {
	Level string `toml:"level"`
}

// Load reads path over the defaults. Only keys present in the file
// override a default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
	}

	if meta.IsDefined("server", "name") {
		cfg.Server.Name = strings.TrimSpace(raw.Server.Name)
	}
	if meta.IsDefined("server", "addr") {
		cfg.Server.Addr = strings.TrimSpace(raw.Server.Addr)
	}
	if meta.IsDefined("server", "cors_origins") {
		cfg.Server.CorsOrigins = normalizeList(raw.Server.CorsOrigins)
	}
	if meta.IsDefined("server", "trusted_proxies") {
		cfg.Server.TrustedProxies = normalizeList(raw.Server.TrustedProxies)
	}

	if meta.IsDefined("limits", "max_depth") {
		cfg.Limits.MaxDepth = raw.Limits.MaxDepth
	}
	if meta.IsDefined("limits", "max_list_size") {
		cfg.Limits.MaxListSize = raw.Limits.MaxListSize
	}
	if meta.IsDefined("limits", "max_map_size") {
		cfg.Limits.MaxMapSize = raw.Limits.MaxMapSize
	}
	if meta.IsDefined("limits", "max_string_length") {
		cfg.Limits.MaxStringLength = raw.Limits.MaxStringLength
	}
	if meta.IsDefined("limits", "max_bytes_length") {
		cfg.Limits.MaxBytesLength = raw.Limits.MaxBytesLength
	}
	if meta.IsDefined("limits", "allow_nan") {
		cfg.Limits.AllowNaN = raw.Limits.AllowNaN
	}
	if meta.IsDefined("limits", "allow_infinity") {
		cfg.Limits.AllowInfinity = raw.Limits.AllowInfinity
	}
	if meta.IsDefined("limits", "max_frame_bytes") {
		cfg.Frame.MaxPayloadBytes = raw.Limits.MaxFrameBytes
	}

	if meta.IsDefined("log", "level") {
		cfg.LogLevel = strings.TrimSpace(raw.Log.Level)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or returns the defaults when path is empty.
func LoadOrDefault(path string) (Config, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Server.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return fmt.Errorf("server config missing addr")
	}
	bounds := []struct {
		key string
		n   int
	}{
		{"max_depth", cfg.Limits.MaxDepth},
		{"max_list_size", cfg.Limits.MaxListSize},
		{"max_map_size", cfg.Limits.MaxMapSize},
		{"max_string_length", cfg.Limits.MaxStringLength},
		{"max_bytes_length", cfg.Limits.MaxBytesLength},
	}
	for _, b := range bounds {
		if b.n <= 0 {
			return fmt.Errorf("limits.%s must be positive, got %d", b.key, b.n)
		}
	}
	if cfg.Frame.MaxPayloadBytes == 0 {
		return fmt.Errorf("limits.max_frame_bytes must be positive")
	}
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("log.level %q is not a known level", cfg.LogLevel)
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
