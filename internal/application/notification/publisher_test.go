package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, tenantID uuid.UUID, event string, payload any) error {
	args := m.Called(ctx, tenantID, event, payload)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestAnnouncer_Announce(t *testing.T) {
	tenantID := uuid.New()

	t.Run("publishes with a deadline", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
			_, ok := ctx.Deadline()
			return ok
		}), tenantID, EventOrderCreated, "payload").Return(nil).Once()

		NewAnnouncer(pub, time.Second, zap.NewNop()).Announce(context.Background(), tenantID, EventOrderCreated, "payload")
		pub.AssertExpectations(t)
	})

	t.Run("failure is logged at warn and swallowed", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)
		pub := new(MockPublisher)
		pub.On("Publish", mock.Anything, tenantID, EventOrderCreated, mock.Anything).Return(errors.New("broker down"))

		NewAnnouncer(pub, time.Second, zap.New(core)).Announce(context.Background(), tenantID, EventOrderCreated, nil)

		warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
		assert.Len(t, warns, 1)
		assert.Equal(t, "Failed to publish notification", warns[0].Message)
	})

	t.Run("cancelled request context still publishes", func(t *testing.T) {
		pub := new(MockPublisher)
		pub.On("Publish", mock.MatchedBy(func(ctx context.Context) bool {
			return ctx.Err() == nil
		}), tenantID, EventOrderCreated, mock.Anything).Return(nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		NewAnnouncer(pub, time.Second, zap.NewNop()).Announce(ctx, tenantID, EventOrderCreated, nil)
		pub.AssertExpectations(t)
	})

	t.Run("nil announcer is a no-op", func(t *testing.T) {
		var a *Announcer
		assert.NotPanics(t, func() { a.Announce(context.Background(), tenantID, EventOrderCreated, nil) })
	})
}

func TestNewEnvelope(t *testing.T) {
	tenantID := uuid.New()
	env := NewEnvelope(tenantID, EventOrderCreated, map[string]int{"itemCount": 2})
	assert.Equal(t, tenantID.String(), env.TenantID)
	assert.Equal(t, EventOrderCreated, env.Event)
	assert.False(t, env.OccurredAt.IsZero())
}
