// Package realtime is the Go materialization of the websocket wire
// envelope client and server exchange: the OT core itself never imports
// this package, keeping it pure and synchronous, but its operations and
// changes must round-trip through these message shapes without loss.
package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/fiberplane/fp-ot/operations"
	"github.com/fiberplane/fp-ot/validate"
)

// FocusKind is the closed set of NotebookFocus variants a subscriber can
// report. The core never rewrites focus; it is recomputed client-side
// after every accepted operation.
type FocusKind string

const (
	FocusNone      FocusKind = "none"
	FocusCollapsed FocusKind = "collapsed"
	FocusSelection FocusKind = "selection"
)

// FocusPosition is a single cursor position within a cell.
type FocusPosition struct {
	CellID string  `json:"cellId"`
	Field  *string `json:"field,omitempty"`
	Offset *uint32 `json:"offset,omitempty"`
}

// NotebookFocus is the tagged union of what a subscriber's cursor is
// currently doing: nothing, a collapsed caret, or a selection range.
type NotebookFocus struct {
	Type   FocusKind      `json:"type"`
	CellID string         `json:"cellId,omitempty"`
	Field  *string        `json:"field,omitempty"`
	Offset *uint32        `json:"offset,omitempty"`
	Anchor *FocusPosition `json:"anchor,omitempty"`
	Focus  *FocusPosition `json:"focus,omitempty"`
}

// ClientMessageType is the "type" discriminator on every client->server
// message.
type ClientMessageType string

const (
	ClientAuthenticate        ClientMessageType = "authenticate"
	ClientSubscribe           ClientMessageType = "subscribe"
	ClientUnsubscribe         ClientMessageType = "unsubscribe"
	ClientApplyOperation      ClientMessageType = "apply_operation"
	ClientApplyOperationBatch ClientMessageType = "apply_operation_batch"
	ClientDebugRequest        ClientMessageType = "debug_request"
	ClientFocusInfo           ClientMessageType = "focus_info"
	ClientUserTypingComment   ClientMessageType = "user_typing_comment"
	ClientSubscribeWorkspace  ClientMessageType = "subscribe_workspace"
	ClientUnsubscribeWorkspace ClientMessageType = "unsubscribe_workspace"
)

// ServerMessageType is the "type" discriminator on every server->client
// message.
type ServerMessageType string

const (
	ServerApplyOperation        ServerMessageType = "apply_operation"
	ServerAck                   ServerMessageType = "ack"
	ServerErr                   ServerMessageType = "err"
	ServerDebugResponse         ServerMessageType = "debug_response"
	ServerRejected              ServerMessageType = "rejected"
	ServerSubscriberAdded       ServerMessageType = "subscriber_added"
	ServerSubscriberRemoved     ServerMessageType = "subscriber_removed"
	ServerSubscriberChangedFocus ServerMessageType = "subscriber_changed_focus"
	ServerThreadAdded           ServerMessageType = "thread_added"
	ServerThreadItemAdded       ServerMessageType = "thread_item_added"
	ServerThreadItemUpdated     ServerMessageType = "thread_item_updated"
	ServerThreadDeleted         ServerMessageType = "thread_deleted"
	ServerUserTypingComment     ServerMessageType = "user_typing_comment"
	ServerEventAdded            ServerMessageType = "event_added"
	ServerEventUpdated          ServerMessageType = "event_updated"
	ServerEventDeleted          ServerMessageType = "event_deleted"
	ServerMention               ServerMessageType = "mention"
)

// ClientMessage is the closed set of messages a subscriber can send.
// clientMessageNode is unexported so the set stays closed to this package.
type ClientMessage interface {
	clientMessageNode()
	Type() ClientMessageType
}

type clientBase struct {
	OpID *string `json:"op_id,omitempty"`
}

// AuthenticateMessage authenticates the connection with a bearer token.
type AuthenticateMessage struct {
	clientBase
	Token string `json:"token"`
}

func (AuthenticateMessage) clientMessageNode()     {}
func (AuthenticateMessage) Type() ClientMessageType { return ClientAuthenticate }

// SubscribeMessage subscribes to a notebook, optionally resuming from a
// known revision so the server can replay the oplog gap.
type SubscribeMessage struct {
	clientBase
	NotebookID string  `json:"notebook_id"`
	Revision   *uint32 `json:"revision,omitempty"`
}

func (SubscribeMessage) clientMessageNode()     {}
func (SubscribeMessage) Type() ClientMessageType { return ClientSubscribe }

// UnsubscribeMessage ends a notebook subscription.
type UnsubscribeMessage struct {
	clientBase
	NotebookID string `json:"notebook_id"`
}

func (UnsubscribeMessage) clientMessageNode()     {}
func (UnsubscribeMessage) Type() ClientMessageType { return ClientUnsubscribe }

// ApplyOperationMessage submits a single operation against the client's
// observed revision.
type ApplyOperationMessage struct {
	clientBase
	NotebookID string               `json:"notebook_id"`
	Operation  operations.Operation `json:"operation"`
	Revision   uint32               `json:"revision"`
}

func (ApplyOperationMessage) clientMessageNode()     {}
func (ApplyOperationMessage) Type() ClientMessageType { return ClientApplyOperation }

// ApplyOperationBatchMessage submits several operations in one round trip,
// applied in order against the same observed revision.
type ApplyOperationBatchMessage struct {
	clientBase
	NotebookID string                 `json:"notebook_id"`
	Operations []operations.Operation `json:"operations"`
	Revision   uint32                 `json:"revision"`
}

func (ApplyOperationBatchMessage) clientMessageNode()     {}
func (ApplyOperationBatchMessage) Type() ClientMessageType { return ClientApplyOperationBatch }

// DebugRequestMessage asks the server for diagnostic state.
type DebugRequestMessage struct {
	clientBase
}

func (DebugRequestMessage) clientMessageNode()     {}
func (DebugRequestMessage) Type() ClientMessageType { return ClientDebugRequest }

// FocusInfoMessage reports a subscriber's current cursor/selection.
type FocusInfoMessage struct {
	clientBase
	NotebookID string        `json:"notebook_id"`
	Focus      NotebookFocus `json:"focus"`
}

func (FocusInfoMessage) clientMessageNode()     {}
func (FocusInfoMessage) Type() ClientMessageType { return ClientFocusInfo }

// UserTypingCommentMessage reports that a subscriber is composing a
// comment on a thread.
type UserTypingCommentMessage struct {
	clientBase
	NotebookID string `json:"notebook_id"`
	ThreadID   string `json:"thread_id"`
}

func (UserTypingCommentMessage) clientMessageNode()     {}
func (UserTypingCommentMessage) Type() ClientMessageType { return ClientUserTypingComment }

// SubscribeWorkspaceMessage subscribes to workspace-wide events (outside
// any single notebook).
type SubscribeWorkspaceMessage struct{ clientBase }

func (SubscribeWorkspaceMessage) clientMessageNode()     {}
func (SubscribeWorkspaceMessage) Type() ClientMessageType { return ClientSubscribeWorkspace }

// UnsubscribeWorkspaceMessage ends a workspace subscription.
type UnsubscribeWorkspaceMessage struct{ clientBase }

func (UnsubscribeWorkspaceMessage) clientMessageNode()     {}
func (UnsubscribeWorkspaceMessage) Type() ClientMessageType { return ClientUnsubscribeWorkspace }

// ServerMessage is the closed set of messages the server can send.
type ServerMessage interface {
	serverMessageNode()
	Type() ServerMessageType
}

// ServerApplyOperationMessage broadcasts an accepted operation to every
// other subscriber of the notebook.
type ServerApplyOperationMessage struct {
	NotebookID string               `json:"notebook_id"`
	Operation  operations.Operation `json:"operation"`
	Revision   uint32               `json:"revision"`
}

func (ServerApplyOperationMessage) serverMessageNode()     {}
func (ServerApplyOperationMessage) Type() ServerMessageType { return ServerApplyOperation }

// AckMessage confirms a client message carrying an op_id was processed
// successfully.
type AckMessage struct {
	OpID string `json:"op_id"`
}

func (AckMessage) serverMessageNode()     {}
func (AckMessage) Type() ServerMessageType { return ServerAck }

// ErrMessage reports a core error (oterrors.Error), distinct from a
// validation rejection.
type ErrMessage struct {
	ErrorMessage string  `json:"error_message"`
	OpID         *string `json:"op_id,omitempty"`
}

func (ErrMessage) serverMessageNode()     {}
func (ErrMessage) Type() ServerMessageType { return ServerErr }

// RejectedMessage reports a validate.RejectReason back to the submitting
// client.
type RejectedMessage struct {
	Reason validate.RejectReason `json:"reason"`
	OpID   *string               `json:"op_id,omitempty"`
}

func (RejectedMessage) serverMessageNode()     {}
func (RejectedMessage) Type() ServerMessageType { return ServerRejected }

// DebugResponseMessage answers a DebugRequestMessage.
type DebugResponseMessage struct {
	Info map[string]string `json:"info"`
}

func (DebugResponseMessage) serverMessageNode()     {}
func (DebugResponseMessage) Type() ServerMessageType { return ServerDebugResponse }

// SubscriberAddedMessage announces a new subscriber joined a notebook.
type SubscriberAddedMessage struct {
	NotebookID   string `json:"notebook_id"`
	SubscriberID string `json:"subscriber_id"`
}

func (SubscriberAddedMessage) serverMessageNode()     {}
func (SubscriberAddedMessage) Type() ServerMessageType { return ServerSubscriberAdded }

// SubscriberRemovedMessage announces a subscriber left a notebook.
type SubscriberRemovedMessage struct {
	NotebookID   string `json:"notebook_id"`
	SubscriberID string `json:"subscriber_id"`
}

func (SubscriberRemovedMessage) serverMessageNode()     {}
func (SubscriberRemovedMessage) Type() ServerMessageType { return ServerSubscriberRemoved }

// SubscriberChangedFocusMessage relays a subscriber's focus_info to the
// rest of the notebook's subscribers.
type SubscriberChangedFocusMessage struct {
	NotebookID   string        `json:"notebook_id"`
	SubscriberID string        `json:"subscriber_id"`
	Focus        NotebookFocus `json:"focus"`
}

func (SubscriberChangedFocusMessage) serverMessageNode()     {}
func (SubscriberChangedFocusMessage) Type() ServerMessageType {
	return ServerSubscriberChangedFocus
}

// ThreadAddedMessage, ThreadItemAddedMessage, ThreadItemUpdatedMessage and
// ThreadDeletedMessage relay comment-thread lifecycle events; threads are
// an out-of-core collaborator, carried here only as opaque payloads the
// core never interprets.
type ThreadAddedMessage struct {
	NotebookID string          `json:"notebook_id"`
	Thread     json.RawMessage `json:"thread"`
}

func (ThreadAddedMessage) serverMessageNode()     {}
func (ThreadAddedMessage) Type() ServerMessageType { return ServerThreadAdded }

type ThreadItemAddedMessage struct {
	NotebookID string          `json:"notebook_id"`
	ThreadID   string          `json:"thread_id"`
	Item       json.RawMessage `json:"item"`
}

func (ThreadItemAddedMessage) serverMessageNode()     {}
func (ThreadItemAddedMessage) Type() ServerMessageType { return ServerThreadItemAdded }

type ThreadItemUpdatedMessage struct {
	NotebookID string          `json:"notebook_id"`
	ThreadID   string          `json:"thread_id"`
	Item       json.RawMessage `json:"item"`
}

func (ThreadItemUpdatedMessage) serverMessageNode()     {}
func (ThreadItemUpdatedMessage) Type() ServerMessageType { return ServerThreadItemUpdated }

type ThreadDeletedMessage struct {
	NotebookID string `json:"notebook_id"`
	ThreadID   string `json:"thread_id"`
}

func (ThreadDeletedMessage) serverMessageNode()     {}
func (ThreadDeletedMessage) Type() ServerMessageType { return ServerThreadDeleted }

// ServerUserTypingCommentMessage relays a typing indicator to the rest of
// the notebook's subscribers.
type ServerUserTypingCommentMessage struct {
	NotebookID   string `json:"notebook_id"`
	ThreadID     string `json:"thread_id"`
	SubscriberID string `json:"subscriber_id"`
}

func (ServerUserTypingCommentMessage) serverMessageNode() {}
func (ServerUserTypingCommentMessage) Type() ServerMessageType {
	return ServerUserTypingComment
}

// EventAddedMessage, EventUpdatedMessage and EventDeletedMessage relay
// timeline-event lifecycle, another out-of-core collaborator.
type EventAddedMessage struct {
	NotebookID string          `json:"notebook_id"`
	Event      json.RawMessage `json:"event"`
}

func (EventAddedMessage) serverMessageNode()     {}
func (EventAddedMessage) Type() ServerMessageType { return ServerEventAdded }

type EventUpdatedMessage struct {
	NotebookID string          `json:"notebook_id"`
	Event      json.RawMessage `json:"event"`
}

func (EventUpdatedMessage) serverMessageNode()     {}
func (EventUpdatedMessage) Type() ServerMessageType { return ServerEventUpdated }

type EventDeletedMessage struct {
	NotebookID string `json:"notebook_id"`
	EventID    string `json:"event_id"`
}

func (EventDeletedMessage) serverMessageNode()     {}
func (EventDeletedMessage) Type() ServerMessageType { return ServerEventDeleted }

// MentionMessage notifies a subscriber they were @mentioned.
type MentionMessage struct {
	NotebookID string `json:"notebook_id"`
	UserID     string `json:"user_id"`
	CellID     string `json:"cell_id,omitempty"`
	ThreadID   string `json:"thread_id,omitempty"`
}

func (MentionMessage) serverMessageNode()     {}
func (MentionMessage) Type() ServerMessageType { return ServerMention }

func marshalWithType(typ string, alias interface{}) ([]byte, error) {
	body, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	typJSON, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	fields["type"] = typJSON
	return json.Marshal(fields)
}

func (m AuthenticateMessage) MarshalJSON() ([]byte, error) {
	type alias AuthenticateMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m SubscribeMessage) MarshalJSON() ([]byte, error) {
	type alias SubscribeMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m UnsubscribeMessage) MarshalJSON() ([]byte, error) {
	type alias UnsubscribeMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m ApplyOperationMessage) MarshalJSON() ([]byte, error) {
	type alias ApplyOperationMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m ApplyOperationBatchMessage) MarshalJSON() ([]byte, error) {
	type alias ApplyOperationBatchMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m DebugRequestMessage) MarshalJSON() ([]byte, error) {
	type alias DebugRequestMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m FocusInfoMessage) MarshalJSON() ([]byte, error) {
	type alias FocusInfoMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m UserTypingCommentMessage) MarshalJSON() ([]byte, error) {
	type alias UserTypingCommentMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m SubscribeWorkspaceMessage) MarshalJSON() ([]byte, error) {
	type alias SubscribeWorkspaceMessage
	return marshalWithType(string(m.Type()), alias(m))
}
func (m UnsubscribeWorkspaceMessage) MarshalJSON() ([]byte, error) {
	type alias UnsubscribeWorkspaceMessage
	return marshalWithType(string(m.Type()), alias(m))
}

// Decode unmarshals a raw client->server message keyed on its "type"
// field.
func Decode(raw []byte) (ClientMessage, error) {
	var head struct {
		Type ClientMessageType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decoding message envelope: %w", err)
	}
	switch head.Type {
	case ClientAuthenticate:
		var m AuthenticateMessage
		return m, json.Unmarshal(raw, &m)
	case ClientSubscribe:
		var m SubscribeMessage
		return m, json.Unmarshal(raw, &m)
	case ClientUnsubscribe:
		var m UnsubscribeMessage
		return m, json.Unmarshal(raw, &m)
	case ClientApplyOperation:
		var wire struct {
			clientBase
			NotebookID string          `json:"notebook_id"`
			Operation  json.RawMessage `json:"operation"`
			Revision   uint32          `json:"revision"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		op, err := operations.Decode(wire.Operation)
		if err != nil {
			return nil, err
		}
		return ApplyOperationMessage{clientBase: wire.clientBase, NotebookID: wire.NotebookID, Operation: op, Revision: wire.Revision}, nil
	case ClientApplyOperationBatch:
		var wire struct {
			clientBase
			NotebookID string            `json:"notebook_id"`
			Operations []json.RawMessage `json:"operations"`
			Revision   uint32            `json:"revision"`
		}
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, err
		}
		ops := make([]operations.Operation, len(wire.Operations))
		for i, o := range wire.Operations {
			op, err := operations.Decode(o)
			if err != nil {
				return nil, fmt.Errorf("operation %d: %w", i, err)
			}
			ops[i] = op
		}
		return ApplyOperationBatchMessage{clientBase: wire.clientBase, NotebookID: wire.NotebookID, Operations: ops, Revision: wire.Revision}, nil
	case ClientDebugRequest:
		var m DebugRequestMessage
		return m, json.Unmarshal(raw, &m)
	case ClientFocusInfo:
		var m FocusInfoMessage
		return m, json.Unmarshal(raw, &m)
	case ClientUserTypingComment:
		var m UserTypingCommentMessage
		return m, json.Unmarshal(raw, &m)
	case ClientSubscribeWorkspace:
		var m SubscribeWorkspaceMessage
		return m, json.Unmarshal(raw, &m)
	case ClientUnsubscribeWorkspace:
		var m UnsubscribeWorkspaceMessage
		return m, json.Unmarshal(raw, &m)
	default:
		return nil, fmt.Errorf("unknown client message type %q", head.Type)
	}
}

// Encode marshals any ServerMessage to its wire form, tagging it with the
// "type" discriminator matching its Type().
func Encode(m ServerMessage) ([]byte, error) {
	switch v := m.(type) {
	case ServerApplyOperationMessage:
		return marshalWithType(string(v.Type()), v)
	case AckMessage:
		return marshalWithType(string(v.Type()), v)
	case ErrMessage:
		return marshalWithType(string(v.Type()), v)
	case RejectedMessage:
		return marshalWithType(string(v.Type()), v)
	case DebugResponseMessage:
		return marshalWithType(string(v.Type()), v)
	case SubscriberAddedMessage:
		return marshalWithType(string(v.Type()), v)
	case SubscriberRemovedMessage:
		return marshalWithType(string(v.Type()), v)
	case SubscriberChangedFocusMessage:
		return marshalWithType(string(v.Type()), v)
	case ThreadAddedMessage:
		return marshalWithType(string(v.Type()), v)
	case ThreadItemAddedMessage:
		return marshalWithType(string(v.Type()), v)
	case ThreadItemUpdatedMessage:
		return marshalWithType(string(v.Type()), v)
	case ThreadDeletedMessage:
		return marshalWithType(string(v.Type()), v)
	case ServerUserTypingCommentMessage:
		return marshalWithType(string(v.Type()), v)
	case EventAddedMessage:
		return marshalWithType(string(v.Type()), v)
	case EventUpdatedMessage:
		return marshalWithType(string(v.Type()), v)
	case EventDeletedMessage:
		return marshalWithType(string(v.Type()), v)
	case MentionMessage:
		return marshalWithType(string(v.Type()), v)
	default:
		return nil, fmt.Errorf("unknown server message type %T", m)
	}
}
