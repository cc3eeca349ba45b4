package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/nats-io/nats.go"
)

const SubjectPrefix = "tournament.audit"

// Publisher is the subset of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each event as JSON on tournament.audit.<entity>.
type NATSSink struct {
	pub Publisher
}

func NewNATSSink(pub Publisher) *NATSSink {
	return &NATSSink{pub: pub}
}

func Subject(entity string) string {
	return SubjectPrefix + "." + strings.ToLower(entity)
}

func (s *NATSSink) Record(_ context.Context, event models.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}
	if err := s.pub.Publish(Subject(event.Entity), data); err != nil {
		return fmt.Errorf("failed to publish audit event %q: %w", event.Action, err)
	}
	return nil
}

func ConnectNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("tournament-engine"),
		nats.Timeout(10*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}
