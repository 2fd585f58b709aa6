package protocol

import (
	"context"
	"encoding/json"

	"github.com/sage-x-project/didmediator/didcomm"
	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/sessionctx"
)

// ForwardType is the DIDComm routing/2.0 forward protocol type URI.
const ForwardType = "https://didcomm.org/routing/2.0/forward"

// forwardBody is the body schema try_parse_forward validates against
// (spec.md §4.5): a next recipient plus at least one attachment
// carrying the fully packed inner envelope.
type forwardBody struct {
	Next string `json:"next"`
}

// TryParseForward validates msg against the forward schema, returning
// the next recipient and the forwarded envelope bytes. A message
// failing validation is a RequestDataError (spec.md §4.5: "Messages
// failing schema validation fail with BadRequest" — modeled as
// RequestDataError, this module's client-schema-violation kind).
func TryParseForward(msg *didcomm.UnpackedMessage) (next string, forwarded []byte, err error) {
	var body forwardBody
	if err := json.Unmarshal(msg.Body, &body); err != nil || body.Next == "" {
		return "", nil, errs.New(errs.RequestDataError, "forward body missing next recipient", err)
	}
	if len(msg.Attachments) == 0 {
		return "", nil, errs.New(errs.RequestDataError, "forward message has no attachments", nil)
	}

	attachment := msg.Attachments[0]
	var raw []byte
	if err := json.Unmarshal(attachment.Data, &raw); err != nil {
		// Attachment data is the raw envelope bytes, not base64-in-JSON;
		// fall back to using it verbatim.
		raw = []byte(attachment.Data)
	}
	if len(raw) == 0 {
		return "", nil, errs.New(errs.RequestDataError, "forward attachment is empty", nil)
	}

	return body.Next, raw, nil
}

// ForwardHandler implements the Forward protocol (spec.md §4.5).
func ForwardHandler(_ context.Context, _ *sessionctx.Session, msg *didcomm.UnpackedMessage) (ProcessMessageResponse, error) {
	next, forwarded, err := TryParseForward(msg)
	if err != nil {
		return ProcessMessageResponse{}, err
	}

	return ProcessMessageResponse{
		StoreMessage:      true,
		ForceLiveDelivery: true,
		Response: MessageResponse{
			Kind:   ResponsePacked,
			Packed: PackedMessage{To: next, Bytes: forwarded},
		},
	}, nil
}
