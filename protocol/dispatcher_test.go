package protocol

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/sessionctx"
)

func TestDispatchUnknownTypeFails(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Dispatch(context.Background(), nil, &didcomm.UnpackedMessage{Type: "unknown"})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.RequestDataError))
}

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Register("test/1.0/noop", func(_ context.Context, _ *sessionctx.Session, _ *didcomm.UnpackedMessage) (ProcessMessageResponse, error) {
		called = true
		return ProcessMessageResponse{}, nil
	})

	_, err := d.Dispatch(context.Background(), nil, &didcomm.UnpackedMessage{Type: "test/1.0/noop"})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestForwardHandlerParsesSchema(t *testing.T) {
	body, _ := json.Marshal(map[string]string{"next": "did:peer:next"})
	msg := &didcomm.UnpackedMessage{
		Type: ForwardType,
		Body: body,
		Attachments: []didcomm.Attachment{
			{ID: "a1", Data: json.RawMessage(`"cGFja2VkLWJ5dGVz"`)},
		},
	}

	resp, err := ForwardHandler(context.Background(), nil, msg)
	require.NoError(t, err)
	assert.True(t, resp.StoreMessage)
	assert.True(t, resp.ForceLiveDelivery)
	assert.Equal(t, ResponsePacked, resp.Response.Kind)
	assert.Equal(t, "did:peer:next", resp.Response.Packed.To)
}

func TestForwardHandlerRejectsMissingNext(t *testing.T) {
	body, _ := json.Marshal(map[string]string{})
	msg := &didcomm.UnpackedMessage{Type: ForwardType, Body: body}

	_, err := ForwardHandler(context.Background(), nil, msg)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.RequestDataError))
}

func TestPingHandlerRespondsToSender(t *testing.T) {
	msg := &didcomm.UnpackedMessage{ID: "ping-1", Type: PingType, From: "did:peer:client"}

	resp, err := PingHandler(context.Background(), nil, msg)
	require.NoError(t, err)
	assert.Equal(t, ResponseMessage, resp.Response.Kind)
	assert.Equal(t, []string{"did:peer:client"}, resp.Response.Message.To)
	assert.Equal(t, PingResponseType, resp.Response.Message.Type)
}
