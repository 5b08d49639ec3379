package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaNotifierPublishesJSON(t *testing.T) {
	w := &recordingWriter{}
	n := NewKafkaNotifierWithWriter(w, nil)

	at := time.Date(2024, 3, 15, 13, 0, 0, 0, time.UTC)
	require.NoError(t, n.DataUpdated(context.Background(), Event{BatchID: "b-1", UpdatedAt: at, RowCount: 42}))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, []byte("b-1"), msg.Key)
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "data_updated", string(msg.Headers[0].Value))

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, EventDataUpdated, ev.Type)
	assert.Equal(t, int64(42), ev.RowCount)
	assert.True(t, at.Equal(ev.UpdatedAt))

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifierWrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	n := NewKafkaNotifierWithWriter(&recordingWriter{err: boom}, nil)

	err := n.DataUpdated(context.Background(), Event{BatchID: "b"})
	require.ErrorIs(t, err, boom)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.DataUpdated(context.Background(), Event{}))
}
