package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/attrcodec"
	"github.com/rawbytedev/attrcodec/pkg/compactwire"
)

// Config is the YAML configuration file. Flags given on the command line
// override the file.
type Config struct {
	TagName          string `yaml:"tagName"`
	DecodeNumberSets bool   `yaml:"decodeNumberSets"`
	Format           string `yaml:"format"`      // json | cbor
	Compression      string `yaml:"compression"` // none | zstd | lz4
	IDPrefix         string `yaml:"idPrefix"`
	LogLevel         string `yaml:"logLevel"`
}

func defaultConfig() Config {
	return Config{
		Format:      "json",
		Compression: "zstd",
		IDPrefix:    "item",
		LogLevel:    "warn",
	}
}

type flags struct {
	configPath       string
	format           string
	compression      string
	prefix           string
	tagName          string
	decodeNumberSets bool
	logLevel         string
}

func (f *flags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.format, "format", "", "wire format for encode/decode: json or cbor")
	fs.StringVar(&f.compression, "compression", "", "snapshot compression for pack: none, zstd or lz4")
	fs.StringVar(&f.prefix, "prefix", "", "ID prefix for records without an _id (pack)")
	fs.StringVar(&f.tagName, "tag", "", "struct tag consulted for field names")
	fs.BoolVar(&f.decodeNumberSets, "decode-number-sets", false, "decode NS values instead of rejecting them")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
}

// loadConfig reads the configuration file, if any, and applies the flags
// that were set explicitly.
func loadConfig(fs *pflag.FlagSet, f *flags) (Config, error) {
	cfg := defaultConfig()
	if f.configPath != "" {
		data, err := os.ReadFile(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", f.configPath, err)
		}
	}
	if fs.Changed("format") {
		cfg.Format = f.format
	}
	if fs.Changed("compression") {
		cfg.Compression = f.compression
	}
	if fs.Changed("prefix") {
		cfg.IDPrefix = f.prefix
	}
	if fs.Changed("tag") {
		cfg.TagName = f.tagName
	}
	if fs.Changed("decode-number-sets") {
		cfg.DecodeNumberSets = f.decodeNumberSets
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Format {
	case "json", "cbor":
	default:
		return fmt.Errorf("unknown format %q (want json or cbor)", c.Format)
	}
	if _, err := compactwire.ParseCompression(c.Compression); err != nil {
		return err
	}
	if c.IDPrefix == "" {
		return fmt.Errorf("idPrefix must not be empty")
	}
	_, err := c.level()
	return err
}

func (c Config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return l, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return l, nil
}

func (c Config) codec() *attrcodec.Codec {
	return attrcodec.NewCodec(attrcodec.Options{
		TagName:          c.TagName,
		DecodeNumberSets: c.DecodeNumberSets,
	})
}
