package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	published []message
	err       error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, message{subject: subject, data: data})
	return nil
}

type sinkFunc func(ctx context.Context, event models.AuditEvent) error

func (f sinkFunc) Record(ctx context.Context, event models.AuditEvent) error { return f(ctx, event) }

func TestSubject(t *testing.T) {
	assert.Equal(t, "tournament.audit.tournament", Subject(models.AuditEntityTournament))
	assert.Equal(t, "tournament.audit.matchgame", Subject(models.AuditEntityMatchGame))
}

func TestNATSSink_PublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	event := models.AuditEvent{
		Action:   "game accepted",
		Entity:   models.AuditEntityMatchGame,
		EntityID: uuid.New(),
		UserID:   uuid.New(),
	}

	require.NoError(t, NewNATSSink(pub).Record(context.Background(), event))
	require.Len(t, pub.published, 1)
	assert.Equal(t, "tournament.audit.matchgame", pub.published[0].subject)

	var decoded models.AuditEvent
	require.NoError(t, json.Unmarshal(pub.published[0].data, &decoded))
	assert.Equal(t, event.Action, decoded.Action)
	assert.Equal(t, event.EntityID, decoded.EntityID)
	assert.False(t, decoded.CreatedAt.IsZero())
}

func TestNATSSink_PublishError(t *testing.T) {
	boom := errors.New("no responders")
	err := NewNATSSink(&fakePublisher{err: boom}).Record(context.Background(), models.AuditEvent{Action: "x"})
	assert.ErrorIs(t, err, boom)
}

func TestMulti_RecordsEverySinkAndJoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	calls := 0
	failing := func(err error) Sink {
		return sinkFunc(func(context.Context, models.AuditEvent) error {
			calls++
			return err
		})
	}

	err := Multi{failing(first), failing(nil), failing(second)}.Record(context.Background(), models.AuditEvent{})
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)

	assert.NoError(t, Multi{failing(nil)}.Record(context.Background(), models.AuditEvent{}))
	assert.NoError(t, Multi(nil).Record(context.Background(), models.AuditEvent{}))
}
