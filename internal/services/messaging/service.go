package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/config"
)

// Service publishes detection events as JSON to NATS
type Service struct {
	conn   *nats.Conn
	closed chan struct{}
	logger zerolog.Logger
}

func NewService(cfg *config.Config) (*Service, error) {
	s := &Service{
		closed: make(chan struct{}),
		logger: log.With().Str("service", "nats").Str("worker_id", cfg.WorkerID).Logger(),
	}

	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name("vision-worker-"+cfg.WorkerID),
		nats.Timeout(cfg.NatsConnectTimeout),
		nats.ReconnectWait(cfg.NatsReconnectWait),
		nats.MaxReconnects(cfg.NatsMaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			s.logger.Warn().Err(err).Msg("NATS disconnected, events buffered until reconnect")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) { close(s.closed) }),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.NatsURL, err)
	}
	s.conn = conn

	s.logger.Info().Str("url", conn.ConnectedUrl()).Msg("NATS connection established")
	return s, nil
}

func (s *Service) Publish(subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

func (s *Service) IsConnected() bool {
	return s.conn != nil && s.conn.IsConnected()
}

// Shutdown drains pending events and waits for the connection to close or
// ctx to expire, whichever comes first
func (s *Service) Shutdown(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	if err := s.conn.Drain(); err != nil {
		s.logger.Warn().Err(err).Msg("NATS drain failed, closing immediately")
		s.conn.Close()
		return nil
	}
	select {
	case <-s.closed:
		return nil
	case <-ctx.Done():
		s.conn.Close()
		return fmt.Errorf("NATS drain: %w", ctx.Err())
	}
}
