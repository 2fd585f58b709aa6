package protocol

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/sessionctx"
)

// PingType is the DIDComm trust-ping protocol type URI.
const PingType = "https://didcomm.org/trust-ping/2.0/ping"

// PingResponseType is the trust-ping response type URI.
const PingResponseType = "https://didcomm.org/trust-ping/2.0/ping-response"

// PingHandler implements trust-ping: a synthesized response addressed
// back to the sender (spec.md §4.5: "Trust-ping and other simple
// protocols return synthesized responses addressed back to from").
func PingHandler(_ context.Context, _ *sessionctx.Session, msg *didcomm.UnpackedMessage) (ProcessMessageResponse, error) {
	if msg.From == "" {
		return ProcessMessageResponse{Response: MessageResponse{Kind: ResponseNone}}, nil
	}

	body, _ := json.Marshal(map[string]any{})
	response := &didcomm.UnpackedMessage{
		ID:          uuid.NewString(),
		Type:        PingResponseType,
		To:          []string{msg.From},
		ThID:        threadID(msg),
		CreatedTime: time.Now().Unix(),
		Body:        body,
	}

	return ProcessMessageResponse{
		StoreMessage:      true,
		ForceLiveDelivery: true,
		Response: MessageResponse{
			Kind:    ResponseMessage,
			Message: response,
		},
	}, nil
}

func threadID(msg *didcomm.UnpackedMessage) string {
	if msg.ThID != "" {
		return msg.ThID
	}
	return msg.ID
}
