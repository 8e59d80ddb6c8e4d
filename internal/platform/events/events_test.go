package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

func TestBusDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus[sample]()
	var seen []string
	bus.Subscribe(func(_ context.Context, evt sample) { seen = append(seen, "a:"+evt.ID) })
	cancel := bus.Subscribe(func(_ context.Context, evt sample) { seen = append(seen, "b:"+evt.ID) })
	bus.Subscribe(func(_ context.Context, evt sample) { seen = append(seen, "c:"+evt.ID) })

	require.NoError(t, bus.Publish(context.Background(), sample{ID: "1"}))
	cancel()
	require.NoError(t, bus.Publish(context.Background(), sample{ID: "2"}))

	require.Equal(t, []string{"a:1", "b:1", "c:1", "a:2", "c:2"}, seen)
}

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestNATSPublisherMarshalsJSON(t *testing.T) {
	conn := &fakeConn{}
	pub := NewNATSPublisher(conn, func(evt sample) string { return "appraisal.notice." + evt.Kind })

	require.NoError(t, pub.Publish(context.Background(), sample{ID: "x", Kind: "review_requested"}))
	require.Equal(t, []string{"appraisal.notice.review_requested"}, conn.subjects)

	var decoded sample
	require.NoError(t, json.Unmarshal(conn.payloads[0], &decoded))
	require.Equal(t, "x", decoded.ID)
}

func TestNATSPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	pub := NewNATSPublisher[sample](&fakeConn{err: boom}, func(sample) string { return "s" })

	err := pub.Publish(context.Background(), sample{})
	require.ErrorIs(t, err, boom)
}

func TestFanoutJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &fakeConn{}
	fan := Fanout[sample]{
		NewNATSPublisher[sample](ok, func(sample) string { return "ok" }),
		nil,
		NewNATSPublisher[sample](&fakeConn{err: boom}, func(sample) string { return "bad" }),
	}

	err := fan.Publish(context.Background(), sample{ID: "1"})
	require.ErrorIs(t, err, boom)
	require.Len(t, ok.subjects, 1)
}
