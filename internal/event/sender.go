package event

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"iap/internal/billing"
)

// Sender pushes purchases-updated events to NATS. It implements
// billing.EventSink; a disabled sender logs and drops.
type Sender struct {
	conn    *nats.Conn
	subject string
	enabled bool
}

// Config holds NATS configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Subject  string
}

// NewSender creates a new Sender instance
func NewSender() (*Sender, error) {
	// Check if we're in development environment
	env := os.Getenv("GO_ENV")
	if env == "development" || env == "dev" {
		glog.Info("development environment detected, NATS event sender disabled")
		return &Sender{enabled: false}, nil
	}

	config := loadConfig()

	natsURL := fmt.Sprintf("nats://%s:%s@%s:%s",
		config.Username, config.Password, config.Host, config.Port)

	conn, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			glog.Warningf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			glog.Infof("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	glog.Infof("connected to NATS server at %s:%s", config.Host, config.Port)

	return &Sender{
		conn:    conn,
		subject: config.Subject,
		enabled: true,
	}, nil
}

// loadConfig loads NATS configuration from environment variables
func loadConfig() Config {
	return Config{
		Host:     getEnvOrDefault("NATS_HOST", "localhost"),
		Port:     getEnvOrDefault("NATS_PORT", "4222"),
		Username: getEnvOrDefault("NATS_USERNAME", ""),
		Password: getEnvOrDefault("NATS_PASSWORD", ""),
		Subject:  getEnvOrDefault("NATS_SUBJECT_IAP_PURCHASES", "os.iap.purchases_updated"),
	}
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// PurchasesUpdated publishes the envelope of an out-of-band purchase update.
func (s *Sender) PurchasesUpdated(env billing.Envelope) {
	if !s.enabled {
		glog.V(2).Info("NATS event sender is disabled, skipping purchases-updated event")
		return
	}

	if s.conn == nil {
		glog.Warning("NATS connection is not initialized")
		return
	}

	data, err := json.Marshal(PurchasesUpdatedEvent{
		EventID: uuid.NewString(),
		Type:    PurchasesUpdatedType,
		Data:    env,
	})
	if err != nil {
		glog.Warningf("failed to marshal purchases-updated event: %v", err)
		return
	}

	if err := s.conn.Publish(s.subject, data); err != nil {
		glog.Warningf("failed to publish purchases-updated event to NATS: %v", err)
		return
	}

	glog.V(2).Infof("sent purchases-updated event to NATS subject '%s'", s.subject)
}

// Close closes the NATS connection
func (s *Sender) Close() {
	if s.conn != nil && s.enabled {
		s.conn.Close()
		glog.Info("NATS connection closed")
	}
}

// IsConnected checks if NATS connection is active
func (s *Sender) IsConnected() bool {
	if !s.enabled || s.conn == nil {
		return false
	}
	return s.conn.IsConnected()
}
