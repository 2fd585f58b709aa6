package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/mailbox"
)

// challengeRequest is the body of POST /authenticate/challenge.
type challengeRequest struct {
	DID string `json:"did"`
}

func (s *Server) handleAuthChallenge(w http.ResponseWriter, r *http.Request) {
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "", errs.New(errs.ParseError, "malformed challenge request", err))
		return
	}
	challenge, err := s.authService.IssueChallenge(req.DID)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeSuccess(w, "", challenge)
}

// handleAuthenticate implements spec.md §4.4 step 2: the request body
// is the client's packed authcrypt envelope, read raw and handed
// straight to C6's unpack by way of auth.Service.
func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "", errs.New(errs.ParseError, "failed to read request body", err))
		return
	}
	pair, err := s.authService.HandleAuthenticate(r.Context(), raw)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeSuccess(w, "", pair)
}

// recipientResult mirrors a single leg of InboundMessageResponse: the
// recipient a packed message was addressed to, its assigned message
// id (when stored), and any per-recipient failure (spec.md §7:
// "per-recipient fan-out errors are collected ... and do not fail the
// request").
type recipientResult struct {
	RecipientDID string `json:"recipientDid"`
	MessageID    string `json:"messageId,omitempty"`
	Error        string `json:"error,omitempty"`
}

type inboundResponse struct {
	Messages  []recipientResult `json:"messages"`
	Ephemeral []byte            `json:"ephemeral,omitempty"`
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, "", errs.New(errs.AuthFailed, "missing session", nil))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, sess.SessionID, errs.New(errs.ParseError, "failed to read request body", err))
		return
	}

	result, err := s.pipeline.ProcessEnvelope(r.Context(), &sess, raw)
	if err != nil {
		writeError(w, sess.SessionID, err)
		return
	}

	resp := inboundResponse{Ephemeral: result.Ephemeral}
	for _, outcome := range result.Stored {
		rr := recipientResult{RecipientDID: outcome.RecipientDID, MessageID: outcome.MessageID}
		if outcome.Err != nil {
			rr.Error = outcome.Err.Error()
		}
		resp.Messages = append(resp.Messages, rr)
	}
	writeSuccess(w, sess.SessionID, resp)
}

type listRequest struct {
	Folder mailbox.Folder `json:"folder"`
	Limit  int            `json:"limit"`
}

// handleMessagesList implements spec.md §4.5: mailbox operations
// operate on the session's own DID only. did_hash is never taken from
// the request body — it is always the authenticated sess.DIDHash,
// matching handleMessagesFetch/handleMessagesDelete in this file and
// message_delete.rs's session.did_hash pattern.
func (s *Server) handleMessagesList(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	var req listRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sess.SessionID, errs.New(errs.ParseError, "malformed list request", err))
		return
	}
	if req.Limit <= 0 || req.Limit > s.limits.MaxListedMessages {
		req.Limit = s.limits.MaxListedMessages
	}

	headers, err := s.store.ListMessages(r.Context(), sess.DIDHash, req.Folder, req.Limit)
	if err != nil {
		writeError(w, sess.SessionID, err)
		return
	}
	writeSuccess(w, sess.SessionID, headers)
}

type fetchRequest struct {
	MessageIDs []string `json:"message_ids"`
}

type fetchResponse struct {
	Messages map[string][]byte `json:"messages"`
	Errors   map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleMessagesFetch(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sess.SessionID, errs.New(errs.ParseError, "malformed fetch request", err))
		return
	}

	resp := fetchResponse{Messages: make(map[string][]byte)}
	for _, id := range req.MessageIDs {
		packed, err := s.store.GetMessage(r.Context(), sess.DIDHash, id)
		if err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[id] = errorMessageFor(err)
			continue
		}
		resp.Messages[id] = packed
	}
	writeSuccess(w, sess.SessionID, resp)
}

type deleteRequest struct {
	MessageIDs []string `json:"message_ids"`
}

type deleteResponse struct {
	Success []string          `json:"success"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleMessagesDelete(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r.Context())

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, sess.SessionID, errs.New(errs.ParseError, "malformed delete request", err))
		return
	}
	if len(req.MessageIDs) > s.limits.MaxDeletedMessages {
		writeError(w, sess.SessionID, errs.New(errs.RequestDataError, "message_ids exceeds max_deleted_messages", nil))
		return
	}

	resp := deleteResponse{}
	for _, id := range req.MessageIDs {
		if err := s.store.DeleteMessage(r.Context(), sess.DIDHash, sess.DIDHash, id); err != nil {
			if resp.Errors == nil {
				resp.Errors = make(map[string]string)
			}
			resp.Errors[id] = errorMessageFor(err)
			continue
		}
		resp.Success = append(resp.Success, id)
	}
	writeSuccess(w, sess.SessionID, resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, "", errs.New(errs.AuthFailed, "missing session", nil))
		return
	}
	s.ws.Serve(w, r, sess.DIDHash)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.checker.GetSystemHealth(r.Context()))
}

// errorMessageFor extracts the client-safe message from err, matching
// writeError's rule against leaking a MediatorError's wrapped Cause.
func errorMessageFor(err error) string {
	if me, ok := err.(*errs.MediatorError); ok {
		return me.Message
	}
	return "internal error"
}
