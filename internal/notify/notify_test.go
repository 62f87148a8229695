package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/localnerve/grants-portal/internal/config"
	"github.com/localnerve/grants-portal/internal/logger"
	"github.com/localnerve/grants-portal/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	return &ses.SendEmailOutput{}, f.err
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	return &sns.PublishOutput{}, f.err
}

type recorder struct {
	name   string
	events []Event
	err    error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Notify(_ context.Context, e Event) error {
	r.events = append(r.events, e)
	return r.err
}

func sampleEvent() Event {
	return Event{
		Type:          EventItemsAdded,
		ClubID:        "club-1",
		ApplicationID: "app-1",
		Recipient:     "secretary@riverside.example",
		Data:          map[string]interface{}{"count": 2, "items": "Bank Statement, Letter of Support"},
		OccurredAt:    time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC),
	}
}

func TestEventBodyIsStable(t *testing.T) {
	e := sampleEvent()
	assert.Equal(t, e.Body(), e.Body())
	assert.Contains(t, e.Body(), "count: 2\nitems: Bank Statement")
	assert.Equal(t, "Success fee invoice issued", Event{Type: EventInvoiceCreated}.Subject())
	assert.Equal(t, "custom.event", Event{Type: "custom.event"}.Subject())
}

func TestSESNotifier(t *testing.T) {
	client := &fakeSES{}
	n := NewSESNotifier(client, "grants@consultancy.example")

	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, []string{"secretary@riverside.example"}, in.Destination.ToAddresses)
	assert.Equal(t, "grants@consultancy.example", *in.Source)
	assert.Equal(t, sampleEvent().Subject(), *in.Message.Subject.Data)

	// nothing to send without a recipient
	e := sampleEvent()
	e.Recipient = ""
	require.NoError(t, n.Notify(context.Background(), e))
	assert.Len(t, client.inputs, 1)
}

func TestSNSNotifier(t *testing.T) {
	client := &fakeSNS{}
	n := NewSNSNotifier(client, "arn:aws:sns:ap-southeast-2:123456789012:grants")

	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "arn:aws:sns:ap-southeast-2:123456789012:grants", *in.TopicArn)
	assert.Equal(t, string(EventItemsAdded), *in.MessageAttributes["event_type"].StringValue)

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(*in.Message), &decoded))
	assert.Equal(t, "app-1", decoded.ApplicationID)
}

func TestMultiIsolatesFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	log := logger.NewZapAdapter(zap.New(core))

	failing := &recorder{name: "flaky", err: errors.New("throttled")}
	ok := &recorder{name: "steady"}
	m := NewMulti(log, failing, ok)

	before := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("flaky"))
	err := m.Notify(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flaky: throttled")

	// the healthy channel still received the event
	assert.Len(t, ok.events, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("flaky")))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "flaky", logs.All()[0].ContextMap()["channel"])
}

func TestDispatchSwallowsErrorsAndStamps(t *testing.T) {
	r := &recorder{name: "r", err: errors.New("down")}
	Dispatch(context.Background(), r, logger.NewNoOpLogger(), Event{Type: EventStageChanged})
	require.Len(t, r.events, 1)
	assert.False(t, r.events[0].OccurredAt.IsZero())

	Dispatch(context.Background(), nil, logger.NewNoOpLogger(), Event{Type: EventStageChanged})
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(logger.NewZapAdapter(zap.New(core)))
	require.NoError(t, n.Notify(context.Background(), sampleEvent()))
	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "club-1", fields["club_id"])
	assert.Equal(t, "pending_items.added", fields["event"])
}

func TestNewFromConfig(t *testing.T) {
	m, err := New(context.Background(), &config.Config{NotifyDrivers: []string{"log"}}, logger.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"log"}, m.Drivers())

	_, err = New(context.Background(), &config.Config{NotifyDrivers: []string{"pigeon"}}, logger.NewNoOpLogger())
	assert.EqualError(t, err, "unknown notify driver: pigeon")
}
