package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the trade gateway: websocket feeds fed from the event stream
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	eventConsumer     *EventConsumer
}

// Config holds configuration for the trade gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	JetStreamConfig  JetStreamConsumerConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		JetStreamConfig:  DefaultJetStreamConsumerConfig(),
	}
}

func NewService(ctx context.Context, config Config, history HistoryProvider) (*Service, error) {
	connectionManager := NewConnectionManager(config.ConnectionConfig)

	eventConsumer, err := NewEventConsumer(ctx, connectionManager, config.JetStreamConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, history),
		eventConsumer:     eventConsumer,
	}, nil
}

// Start runs the broadcaster and consumer until ctx is done
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting trade gateway service")

	go s.connectionManager.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.eventConsumer.Start(ctx)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}

	log.Info().Msg("trade gateway service shutting down")
	return s.Stop()
}

func (s *Service) Stop() error {
	if err := s.eventConsumer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop event consumer")
	}
	log.Info().Msg("trade gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	mux.HandleFunc("GET /health", s.handleHealth)
	log.Info().Msg("trade gateway routes registered")
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if !s.eventConsumer.Connected() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"nats_connected": s.eventConsumer.Connected(),
		"connections":    s.connectionManager.Stats().TotalConnections,
	})
}
