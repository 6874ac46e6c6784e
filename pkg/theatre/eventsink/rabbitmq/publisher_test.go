package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-theatre/pkg/theatre"
)

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
	err  error
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestPublisher_Events(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, "test.events")
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }
	ctx := context.Background()

	item := &theatre.Item{ID: uuid.New(), Kind: theatre.KindProduction, Title: "Hamlet", Slug: "hamlet", Status: theatre.StatusPublished}
	require.NoError(t, p.ItemCreated(ctx, item))
	require.NoError(t, p.ItemDeleted(ctx, item.ID, theatre.KindProduction))

	pageID := uuid.New()
	result := &theatre.ConversionResult{
		Production:          theatre.ProductionSummary{ID: item.ID.String(), Title: "Hamlet", Slug: "hamlet", Status: theatre.StatusPublished},
		OriginalPageDeleted: true,
	}
	require.NoError(t, p.PageConverted(ctx, pageID, result))

	assert.Equal(t, "test.events", ch.key)
	require.Len(t, ch.msgs, 3)

	msg := ch.msgs[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, EventItemCreated, msg.Type)
	assert.Equal(t, fixed, msg.Timestamp)

	var created Event
	require.NoError(t, json.Unmarshal(msg.Body, &created))
	assert.Equal(t, item.ID, created.ItemID)
	assert.Equal(t, "production", created.Kind)
	assert.Equal(t, "hamlet", created.Slug)

	var converted Event
	require.NoError(t, json.Unmarshal(ch.msgs[2].Body, &converted))
	assert.Equal(t, EventProductionConverted, converted.Type)
	assert.Equal(t, pageID, converted.ItemID)
	require.NotNil(t, converted.Conversion)
	assert.True(t, converted.Conversion.OriginalPageDeleted)
}

func TestPublisher_PublishError(t *testing.T) {
	p := newPublisher(&fakeChannel{err: errors.New("channel closed")}, DefaultQueue)
	err := p.ItemUpdated(context.Background(), &theatre.Item{ID: uuid.New()})
	assert.ErrorContains(t, err, "channel closed")
}

func TestDial_RequiresURL(t *testing.T) {
	_, err := Dial(Config{})
	assert.Error(t, err)
}

func TestDial_Broker(t *testing.T) {
	url := os.Getenv("TEST_RABBITMQ_URL")
	if url == "" {
		t.Skip("TEST_RABBITMQ_URL not set")
	}
	p, err := Dial(Config{URL: url, Queue: "theatre.events.test"})
	require.NoError(t, err)
	defer p.Close()

	assert.NoError(t, p.ItemCreated(context.Background(), &theatre.Item{ID: uuid.New(), Kind: theatre.KindVenue}))
}
