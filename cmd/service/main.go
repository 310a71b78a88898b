package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wbnlp/docmap/pkg/colorscale"
	"github.com/wbnlp/docmap/pkg/config"
	"github.com/wbnlp/docmap/pkg/logger"
	"github.com/wbnlp/docmap/pkg/mapstyle"
	"github.com/wbnlp/docmap/pkg/rowsource"
	"github.com/wbnlp/docmap/pkg/service"
)

func main() {
	configFile := flag.String("config", config.ConstantConfigFilename, "Path to config file")
	hostFlag := flag.String("host", "", "HTTP service host")
	portFlag := flag.Int("port", 0, "HTTP service port")
	logFileFlag := flag.String("log-file", "", "Path to log file")
	logLevelFlag := flag.String("log-level", "", "Log level (debug, info, notice, warn, error)")
	themeFlag := flag.String("theme", "", "Path to YAML theme file")
	scaleFlag := flag.String("scale", "", "Color scale name")
	allowRemote := flag.Bool("insecure-allow-remote", false, "Allow binding to non-localhost addresses")
	toStdout := flag.Bool("stdout", false, "Log to stdout")

	flag.Parse()

	cfg := config.Load(*configFile)

	// Override config with flags if provided
	if *hostFlag != "" {
		cfg.ServiceHost = *hostFlag
	}
	if *portFlag != 0 {
		cfg.ServicePort = *portFlag
	}
	if *logFileFlag != "" {
		cfg.LogFile = *logFileFlag
	}
	if *logLevelFlag != "" {
		cfg.LogLevel = *logLevelFlag
	}
	if *themeFlag != "" {
		cfg.ThemeFile = *themeFlag
	}
	if *scaleFlag != "" {
		cfg.ColorScale = *scaleFlag
	}
	if *allowRemote {
		cfg.InsecureAllowRemote = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var logF *os.File
	var output io.Writer = os.Stdout

	if !*toStdout {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v. Logging to stdout.\n", cfg.LogFile, err)
		} else {
			logF = f
			output = f
		}
	}

	// Configure slog level
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, defaulting to INFO\n", err)
	}
	slog.SetDefault(slog.New(logger.New(output, level)))

	theme, scale, err := loadStyle(cfg)
	if err != nil {
		slog.Error("Failed to load map style", "error", err)
		os.Exit(1)
	}

	opts := service.Options{
		Host:          cfg.ServiceHost,
		Port:          cfg.ServicePort,
		Theme:         theme,
		Scale:         scale,
		DynamicColors: cfg.DynamicColors,
		Trend:         cfg.Trend,
		SortYears:     cfg.SortYears,
		Open:          newOpener(cfg),
		CacheTTL:      cfg.CacheTTL,
		CORSOrigins:   cfg.CORSOrigins,
	}

	if cfg.RedisAddr != "" && cfg.CacheTTL <= 0 {
		slog.Info("Cache TTL is zero, figures will not be cached", "address", cfg.RedisAddr)
	} else if cfg.RedisAddr != "" {
		cache := service.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cache.Ping(ctx); err != nil {
			slog.Warn("Redis is not reachable, figures will not be cached", "address", cfg.RedisAddr, "error", err)
			_ = cache.Close()
		} else {
			slog.Info("Caching figures in redis", "address", cfg.RedisAddr, "ttl", cfg.CacheTTL)
			opts.Cache = cache
			defer func() { _ = cache.Close() }()
		}
		cancel()
	}

	s := service.New(opts)

	if cfg.ThemeFile != "" {
		w, err := watchTheme(cfg, s.SetStyle)
		if err != nil {
			slog.Warn("Theme changes will not be picked up", "path", cfg.ThemeFile, "error", err)
		} else {
			defer w.Stop()
		}
	}

	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("Service failed", "error", err)
			os.Exit(1)
		}
	}()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for sig := range sigChan {
		switch sig {
		case syscall.SIGHUP:
			if logF != nil {
				newF, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err == nil {
					_ = logF.Close()
					logF = newF

					// Re-create slog handler with new file
					slog.SetDefault(slog.New(logger.New(logF, level)))

					slog.Info("Log file rotated")
				} else {
					slog.Error("Failed to rotate log", "error", err)
				}
			}
		case syscall.SIGINT, syscall.SIGTERM:
			slog.Info("Shutting down service...")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.Shutdown(ctx); err != nil {
				slog.Error("Shutdown error", "error", err)
			}
			return
		}
	}
}

// loadStyle resolves the theme file and color scale named by cfg.
func loadStyle(cfg *config.Config) (mapstyle.Theme, colorscale.Scale, error) {
	theme := mapstyle.DefaultTheme()
	if cfg.ThemeFile != "" {
		t, err := mapstyle.LoadTheme(cfg.ThemeFile)
		if err != nil {
			return theme, nil, err
		}
		theme = t
	}
	scale, err := theme.Scale(cfg.ColorScale)
	if err != nil {
		return theme, nil, err
	}
	return theme, scale, nil
}

// watchTheme applies every valid edit of the theme file to the running
// service. The scale is rebuilt as well so ThemeScale follows the new colors.
func watchTheme(cfg *config.Config, apply func(mapstyle.Theme, colorscale.Scale)) (*mapstyle.ThemeWatcher, error) {
	w, err := mapstyle.NewThemeWatcher(cfg.ThemeFile, func(t mapstyle.Theme) {
		scale, err := t.Scale(cfg.ColorScale)
		if err != nil {
			slog.Warn("Keeping previous theme", "path", cfg.ThemeFile, "error", err)
			return
		}
		apply(t, scale)
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(context.Background()); err != nil {
		w.Stop()
		return nil, err
	}
	return w, nil
}

func newOpener(cfg *config.Config) service.Opener {
	opts := rowsource.OpenOptions{
		Timeout: cfg.FetchTimeout,
		Table:   cfg.SQLTable,
		Sheet:   cfg.XLSXSheet,
		Policy: &rowsource.Policy{
			Root:  cfg.SourceRoot,
			Hosts: cfg.SourceHosts,
		},
	}
	return func(ctx context.Context, spec string) (rowsource.Source, error) {
		return rowsource.Open(ctx, spec, opts)
	}
}
