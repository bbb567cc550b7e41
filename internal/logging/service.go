package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/config"
)

// Setup configures the global zerolog logger: console output on stderr, the
// level from config and, when enabled, a tee into the embedded Logdy UI.
func Setup(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.LogdyEnabled {
		if w, _, err := StartLogdy(cfg); err != nil {
			log.Warn().Err(err).Msg("Logdy UI unavailable, logging to console only")
		} else {
			out = zerolog.MultiLevelWriter(out, w)
		}
	}
	log.Logger = log.Output(out)

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func NewServiceLogger(cfg *config.Config, service string) zerolog.Logger {
	return log.With().Str("worker_id", cfg.WorkerID).Str("service", service).Logger()
}

func WithSession(base zerolog.Logger, sessionID string) zerolog.Logger {
	return base.With().Str("session_id", sessionID).Logger()
}
