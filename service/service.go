package service

import (
	"context"
	"fmt"

	"civicreport/config"
	"civicreport/database"
	"civicreport/handlers"
	"civicreport/rabbitmq"
	"civicreport/reports"
	"civicreport/websocket"

	"github.com/apex/log"
)

// Service wires the store, the realtime hub and the optional RabbitMQ forwarder
type Service struct {
	config    *config.Config
	db        *database.Database
	hub       *websocket.Hub
	publisher *rabbitmq.Publisher
	forwarder *rabbitmq.Forwarder
	reports   *reports.Service
	handlers  *handlers.Handlers
}

// NewService creates a new civic reports service
func NewService(cfg *config.Config) (*Service, error) {
	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.EnsureSchema {
		if err := db.EnsureReportsTable(context.Background()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure reports table: %w", err)
		}
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()

	s := &Service{
		config: cfg,
		db:     db,
		hub:    hub,
	}

	notifiers := []reports.Notifier{hub}
	if cfg.AMQPURL != "" {
		publisher, err := rabbitmq.NewPublisher(rabbitmq.Config{
			URL:        cfg.AMQPURL,
			Exchange:   cfg.AMQPExchange,
			RoutingKey: cfg.AMQPRoutingKey,
		})
		if err != nil {
			// Analysis fan-out is optional; reports are still accepted without it.
			log.WithError(err).Warn("RabbitMQ unavailable, report forwarding disabled")
		} else {
			s.publisher = publisher
			s.forwarder = rabbitmq.NewForwarder(publisher)
			notifiers = append(notifiers, s.forwarder)
			log.Infof("Forwarding reports to RabbitMQ exchange %q", cfg.AMQPExchange)
		}
	}

	s.reports = reports.NewService(db, notifiers...)
	s.handlers = handlers.NewHandlers(s.reports, hub, db)
	return s, nil
}

// Start starts the service
func (s *Service) Start() error {
	log.Info("Starting civic reports service...")
	go s.hub.Run()
	log.Info("Civic reports service started successfully")
	return nil
}

// Stop stops the service gracefully
func (s *Service) Stop() error {
	log.Info("Stopping civic reports service...")

	s.hub.Stop()

	if s.forwarder != nil {
		s.forwarder.Close()
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			log.WithError(err).Warn("Error closing RabbitMQ publisher")
		}
	}

	if err := s.db.Close(); err != nil {
		log.WithError(err).Error("Error closing database")
		return err
	}

	log.Info("Civic reports service stopped")
	return nil
}

// GetHandlers returns the HTTP handlers
func (s *Service) GetHandlers() *handlers.Handlers {
	return s.handlers
}

// GetHub returns the realtime hub
func (s *Service) GetHub() *websocket.Hub {
	return s.hub
}
