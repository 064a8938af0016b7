package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexcora-checkout-api/models"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	closed   bool
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) IsConnected() bool { return !f.closed }
func (f *fakeConn) Close()            { f.closed = true }

func TestPublish(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "lexcora.checkout.")

	require.NoError(t, p.Publish(models.CheckoutEvent{
		Type:       models.EventPaid,
		CheckoutID: "chk-1",
		Tier:       "professional",
	}))

	require.Len(t, fc.subjects, 1)
	assert.Equal(t, "lexcora.checkout.paid", fc.subjects[0])

	var got models.CheckoutEvent
	require.NoError(t, json.Unmarshal(fc.payloads[0], &got))
	assert.Equal(t, "chk-1", got.CheckoutID)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestPublishErrors(t *testing.T) {
	p := newPublisher(&fakeConn{err: errors.New("no responders")}, "x")
	assert.Error(t, p.Publish(models.CheckoutEvent{Type: models.EventLead}))
	assert.Error(t, p.Publish(models.CheckoutEvent{}))
}

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewPublisher("", "lexcora.checkout")
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.False(t, p.IsConnected())
	assert.NoError(t, p.Publish(models.CheckoutEvent{Type: models.EventLead}))
	assert.Equal(t, "lexcora.checkout.trial.requested", p.Subject(models.EventTrialRequested))
	p.Close()
}

func TestClose(t *testing.T) {
	fc := &fakeConn{}
	p := newPublisher(fc, "")
	assert.True(t, p.IsConnected())
	assert.Equal(t, "lead", p.Subject(models.EventLead))
	p.Close()
	assert.True(t, fc.closed)
}
