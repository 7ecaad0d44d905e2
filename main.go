package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"voicechat/core"
	"voicechat/factories"
	"voicechat/handlers/playback"
	"voicechat/handlers/transport"
	"voicechat/services/espeak"
	"voicechat/transports/console"
	"voicechat/transports/websocket"
)

func main() {
	envFile := cli.StringP("env", "e", ".env.local", "Env file path")
	settingsPath := cli.StringP("settings", "s", "./settings.json", "Settings file path (ignored when SETTINGS_JSON_B64 is set)")
	mode := cli.StringP("mode", "m", "", "Run mode: server or console (overrides settings)")
	listen := cli.String("listen", "", "WebSocket listen address (overrides settings)")
	staticDir := cli.String("static", "", "Directory served at / in server mode")
	dataDir := cli.StringP("data", "d", "", "Conversation storage directory (overrides settings)")
	logDir := cli.String("log-dir", "", "Directory for per-session JSON logs")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	if err := godotenv.Load(*envFile); err != nil {
		core.GetLogger().Debug("no env file loaded", "path", *envFile, "error", err)
	}

	settings, err := factories.SettingsConfigFromEnv(getEnv("SETTINGS_PATH", *settingsPath))
	if err != nil {
		core.GetLogger().Warn("failed to load settings, using defaults", "error", err)
	}
	applyOverrides(&settings, *mode, *listen, *staticDir, *dataDir, *logDir)
	settings.Responder.InjectAPIKeys(factories.APIKeysFromEnv())

	// stdout carries the conversation in console mode
	logOut := os.Stdout
	if settings.Mode == factories.ModeConsole {
		logOut = os.Stderr
	}
	core.SetLogger(*core.NewDevelopmentLogger(logOut, core.ParseLevel(*logLevel)))
	logger := core.GetLogger().With(map[string]any{"component": "main"})

	if err := settings.Validate(); err != nil {
		logger.Error("invalid settings", "error", err)
		os.Exit(1)
	}

	session, err := factories.NewSession(settings, core.GetLogger())
	if err != nil {
		logger.Error("failed to initialise session", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider := buildProvider(ctx, settings, logger)
	pipeline := factories.NewPipeline(session.BuildHandlers, factories.PipelineConfig{
		Timeout: time.Duration(getEnvAsInt("SESSION_TIMEOUT_SECONDS", 0)) * time.Second,
		LogDir:  settings.LogDir,
	}, core.GetLogger())

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		// a console session ending ends the process
		defer stop()
		return pipeline.Serve(provider, ctx)
	})
	eg.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.Error("exited with error", "error", err)
		os.Exit(1)
	}
}

func applyOverrides(settings *factories.SettingsConfig, mode, listen, staticDir, dataDir, logDir string) {
	if mode != "" {
		settings.Mode = mode
	}
	if listen != "" {
		settings.WebSocket.Listen = listen
	}
	if staticDir != "" {
		settings.WebSocket.StaticDir = staticDir
	}
	if dataDir != "" {
		settings.DataDir = dataDir
	}
	if logDir != "" {
		settings.LogDir = logDir
	}
}

func buildProvider(ctx context.Context, settings factories.SettingsConfig, logger *core.Logger) transport.ITransportProvider {
	if settings.Mode != factories.ModeConsole {
		return websocket.NewProvider(settings.WebSocket, core.GetLogger())
	}

	var device playback.SpeechDevice
	if settings.Playback.Enabled {
		d, err := espeak.NewDevice(ctx, settings.Espeak, core.GetLogger())
		if err != nil {
			logger.Warn("local speech output unavailable", "error", err)
		} else {
			device = d
		}
	}
	return console.NewProvider(os.Stdin, os.Stdout, device, core.GetLogger())
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer with a default fallback
func getEnvAsInt(key string, defaultValue int) int {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultValue
	}
	return val
}
