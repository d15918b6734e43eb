package ingest

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/w4b_v3/server/analytics/internal/config"
)

type invalidatorStub struct {
	mu  sync.Mutex
	ids []string
}

func (s *invalidatorStub) InvalidateController(ctx context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
	return 1, nil
}

// sliceReader replays messages and then returns err
type sliceReader struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		return kafka.Message{}, r.err
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	return nil
}

func TestDecode(t *testing.T) {
	n, err := Decode([]byte(`{"controller_id":"c1","timestamp":"2024-05-01T10:00:00Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "c1", n.ControllerID)
	assert.Equal(t, 10, n.Timestamp.Hour())

	_, err = Decode([]byte(`{"timestamp":"2024-05-01T10:00:00Z"}`))
	assert.Error(t, err)
	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestRunSkipsMalformedMessages(t *testing.T) {
	reader := &sliceReader{
		msgs: []kafka.Message{
			{Value: []byte(`{"controller_id":"c1"}`)},
			{Value: []byte(`garbage`), Offset: 7},
			{Value: []byte(`{"controller_id":"c2"}`)},
		},
		err: stderrors.New("broker gone"),
	}
	inv := &invalidatorStub{}
	l := newListener(reader, inv)

	err := l.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
	assert.Equal(t, []string{"c1", "c2"}, inv.ids)

	require.NoError(t, l.Close())
	assert.True(t, reader.closed)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := newListener(&sliceReader{err: context.Canceled}, &invalidatorStub{})
	assert.NoError(t, l.Run(ctx))
}

func TestNewListenerDisabledWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewListener(config.KafkaConfig{Topic: "agricultural-measurements"}, &invalidatorStub{}))
}
