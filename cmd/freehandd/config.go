package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/freehand"
	"github.com/gogpu/freehand/server"
)

type canvasConfig struct {
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	Background     []int   `toml:"background"`
	StrokeColor    []int   `toml:"stroke_color"`
	LineWidth      float64 `toml:"line_width"`
	MaxSnapshots   int     `toml:"max_snapshots"`
	RedrawStride   int     `toml:"redraw_stride"`
	ShowWarnings   bool    `toml:"show_warnings"`
	MaxImportBytes int64   `toml:"max_import_bytes"`
}

type config struct {
	Addr      string       `toml:"addr"`
	LogLevel  string       `toml:"log_level"`
	Advertise bool         `toml:"advertise"`
	Instance  string       `toml:"instance"`
	Canvas    canvasConfig `toml:"canvas"`
}

func defaultConfig() config {
	def := server.DefaultConfig()
	return config{
		Addr:     def.Addr,
		LogLevel: "info",
		Canvas: canvasConfig{
			Width:          def.Width,
			Height:         def.Height,
			Background:     def.Background,
			StrokeColor:    def.StrokeColor,
			LineWidth:      def.LineWidth,
			MaxSnapshots:   def.MaxSnapshots,
			MaxImportBytes: def.MaxImportBytes,
		},
	}
}

// readConfig overlays the TOML file at path onto the defaults.
// Keys the file sets that config does not know are an error.
func readConfig(path string) (config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func writeConfig(w io.Writer, cfg config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

func (c config) validate() error {
	var errs []error
	if c.Canvas.Width <= 0 {
		errs = append(errs, &freehand.ConfigError{Param: "canvas.width"})
	}
	if c.Canvas.Height <= 0 {
		errs = append(errs, &freehand.ConfigError{Param: "canvas.height"})
	}
	if _, err := freehand.NormalizeColor(c.Canvas.Background...); err != nil {
		errs = append(errs, fmt.Errorf("canvas.background: %w", err))
	}
	if _, err := freehand.NormalizeColor(c.Canvas.StrokeColor...); err != nil {
		errs = append(errs, fmt.Errorf("canvas.stroke_color: %w", err))
	}
	if _, err := c.level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c config) server() server.Config {
	return server.Config{
		Addr:           c.Addr,
		Width:          c.Canvas.Width,
		Height:         c.Canvas.Height,
		Background:     c.Canvas.Background,
		StrokeColor:    c.Canvas.StrokeColor,
		LineWidth:      c.Canvas.LineWidth,
		MaxSnapshots:   c.Canvas.MaxSnapshots,
		RedrawStride:   c.Canvas.RedrawStride,
		ShowWarnings:   c.Canvas.ShowWarnings,
		MaxImportBytes: c.Canvas.MaxImportBytes,
	}
}

type mode int

const (
	modeServe mode = iota
	modeInit
	modeBrowse
)

// configure parses args, loads the config file if one is named, and
// applies the flags that were set on top of it.
func configure(args []string, stderr io.Writer) (config, mode, string, error) {
	fs := flag.NewFlagSet("freehandd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		path      = fs.String("config", "", "path to a TOML config file")
		initPath  = fs.String("init", "", "write a default config file to `path` and exit")
		browse    = fs.Bool("browse", false, "list freehand servers on the local network and exit")
		addr      = fs.String("addr", "", "listen address")
		width     = fs.Int("width", 0, "canvas width")
		height    = fs.Int("height", 0, "canvas height")
		logLevel  = fs.String("log-level", "", "debug, info, warn or error")
		advertise = fs.Bool("advertise", false, "announce the server over mDNS")
		instance  = fs.String("instance", "", "mDNS instance name (default: host name)")
	)
	if err := fs.Parse(args); err != nil {
		return config{}, modeServe, "", err
	}

	cfg := defaultConfig()
	if *path != "" {
		var err error
		if cfg, err = readConfig(*path); err != nil {
			return cfg, modeServe, "", err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "width":
			cfg.Canvas.Width = *width
		case "height":
			cfg.Canvas.Height = *height
		case "log-level":
			cfg.LogLevel = *logLevel
		case "advertise":
			cfg.Advertise = *advertise
		case "instance":
			cfg.Instance = *instance
		}
	})

	switch {
	case *initPath != "":
		return cfg, modeInit, *initPath, nil
	case *browse:
		return cfg, modeBrowse, "", nil
	}
	if err := cfg.validate(); err != nil {
		return cfg, modeServe, "", err
	}
	return cfg, modeServe, "", nil
}

func createConfig(path string, cfg config) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := writeConfig(f, cfg); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
