package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	api "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/wolfman30/whatsapp-triage/pkg/logging"
)

type fakeMessageCreator struct {
	params []*api.CreateMessageParams
	err    error
}

func (f *fakeMessageCreator) CreateMessage(params *api.CreateMessageParams) (*api.ApiV2010Message, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	sid, status := "SM-out-1", "queued"
	return &api.ApiV2010Message{Sid: &sid, Status: &status}, nil
}

func TestTwilioSenderSendReply(t *testing.T) {
	creator := &fakeMessageCreator{}
	sender, err := newTwilioSender(creator, "+14155238886", logging.Discard())
	require.NoError(t, err)

	sid, err := sender.SendReply(context.Background(), "whatsapp:+919812345678", "Rest well")

	require.NoError(t, err)
	assert.Equal(t, "SM-out-1", sid)
	require.Len(t, creator.params, 1)
	p := creator.params[0]
	assert.Equal(t, "whatsapp:+919812345678", *p.To)
	assert.Equal(t, "whatsapp:+14155238886", *p.From)
	assert.Equal(t, "Rest well", *p.Body)
}

func TestTwilioSenderDoesNotRetry(t *testing.T) {
	creator := &fakeMessageCreator{err: errors.New("status: 503")}
	sender, err := newTwilioSender(creator, "whatsapp:+14155238886", logging.Discard())
	require.NoError(t, err)

	_, err = sender.SendReply(context.Background(), "+919812345678", "hi")

	assert.ErrorContains(t, err, "503")
	assert.Len(t, creator.params, 1)
}

func TestTwilioSenderValidation(t *testing.T) {
	_, err := newTwilioSender(&fakeMessageCreator{}, "", logging.Discard())
	assert.Error(t, err)

	_, err = NewTwilioSender("", "token", "+14155238886", logging.Discard())
	assert.Error(t, err)

	sender, err := newTwilioSender(&fakeMessageCreator{}, "+14155238886", logging.Discard())
	require.NoError(t, err)
	_, err = sender.SendReply(context.Background(), "", "hi")
	assert.Error(t, err)
	_, err = sender.SendReply(context.Background(), "+919812345678", "  ")
	assert.Error(t, err)
}

func TestNewTwilioSenderUsesRestClient(t *testing.T) {
	sender, err := NewTwilioSender("AC123", "token", "+14155238886", logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, sender.client)
}

func TestMessageTwiML(t *testing.T) {
	doc, err := MessageTwiML("⚠️ Call *108* & go now")
	require.NoError(t, err)
	assert.Contains(t, doc, "<Response>")
	assert.Contains(t, doc, "<Message>")
	assert.Contains(t, doc, "Call *108* &amp; go now")
}
