package logging

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/config"
)

// logdyWriter receives zerolog's raw JSON lines, one event per Write
type logdyWriter struct {
	ui logdy.Logdy
}

func (w *logdyWriter) Write(p []byte) (int, error) {
	if line := bytes.TrimRight(p, "\n"); len(line) > 0 {
		w.ui.LogString(string(line))
	}
	return len(p), nil
}

// StartLogdy serves the embedded Logdy UI and returns the writer to tee into
// along with the UI address
func StartLogdy(cfg *config.Config) (io.Writer, string, error) {
	if cfg.LogdyPort <= 0 || cfg.LogdyPort == cfg.Port {
		return nil, "", fmt.Errorf("logdy port %d is invalid or taken by the API", cfg.LogdyPort)
	}
	port := strconv.Itoa(cfg.LogdyPort)
	ui := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   cfg.LogdyHost,
		ServerPort: port,
	}, nil)

	addr := fmt.Sprintf("http://%s:%s", cfg.LogdyHost, port)
	log.Info().Str("url", addr).Str("worker_id", cfg.WorkerID).Msg("Logdy UI available")
	return &logdyWriter{ui: ui}, addr, nil
}
