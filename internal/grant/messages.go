package grant

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pixil98/go-tacklebox/internal/item"
)

// MessageType tags the payload of an Envelope.
type MessageType string

const (
	TypeGrantRequest MessageType = "grant_request"
	TypeGrantConfirm MessageType = "grant_confirm"
	TypeGrantDeny    MessageType = "grant_deny"
	TypeSyncRequest  MessageType = "inventory_sync_request"
	TypeSync         MessageType = "inventory_sync"
	TypeItemUpdate   MessageType = "item_update"
	TypeItemRemoved  MessageType = "item_removed"
	TypeItemAction   MessageType = "item_action"
)

// Envelope is the wire frame of every grant protocol message.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// GrantRequest asks the server to add amount units of a definition to the
// owner's inventory. Params carries the domain reason for the grant, e.g.
// {"source": "shop", "currency": "coins"}.
type GrantRequest struct {
	OperationID  uuid.UUID         `json:"operation_id"`
	OwnerID      uuid.UUID         `json:"owner_id"`
	DefinitionID int               `json:"definition_id"`
	Amount       int               `json:"amount"`
	Params       map[string]string `json:"params,omitempty"`
}

type GrantConfirm struct {
	OperationID uuid.UUID `json:"operation_id"`
	InstanceID  uuid.UUID `json:"instance_id"`
}

type GrantDeny struct {
	OperationID uuid.UUID `json:"operation_id"`
	Amount      int       `json:"amount"`
	Reason      string    `json:"reason,omitempty"`
}

type SyncRequest struct {
	OwnerID uuid.UUID `json:"owner_id"`
}

// InventorySync is the server's full view of an owner's inventory.
type InventorySync struct {
	OwnerID       uuid.UUID     `json:"owner_id"`
	CatalogDigest string        `json:"catalog_digest,omitempty"`
	Items         []item.Record `json:"items"`
}

// ItemUpdate carries the new state of one instance after a server-side use.
type ItemUpdate struct {
	Item item.Record `json:"item"`
}

type ItemRemoved struct {
	InstanceID uuid.UUID `json:"instance_id"`
}

// Action is something an owner does with an item they hold.
type Action string

const (
	ActionUse     Action = "use"
	ActionConsume Action = "consume"
	ActionDiscard Action = "discard"
)

// ItemAction asks the server to use, consume or discard one owned instance.
// The result arrives as an ItemUpdate or ItemRemoved push.
type ItemAction struct {
	OwnerID    uuid.UUID `json:"owner_id"`
	InstanceID uuid.UUID `json:"instance_id"`
	Action     Action    `json:"action"`
}

func typeOf(msg any) (MessageType, error) {
	switch msg.(type) {
	case *GrantRequest:
		return TypeGrantRequest, nil
	case *GrantConfirm:
		return TypeGrantConfirm, nil
	case *GrantDeny:
		return TypeGrantDeny, nil
	case *SyncRequest:
		return TypeSyncRequest, nil
	case *InventorySync:
		return TypeSync, nil
	case *ItemUpdate:
		return TypeItemUpdate, nil
	case *ItemRemoved:
		return TypeItemRemoved, nil
	case *ItemAction:
		return TypeItemAction, nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}
}

// Encode wraps msg, which must be a pointer to one of the message types, in
// an envelope.
func Encode(msg any) ([]byte, error) {
	t, err := typeOf(msg)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", t, err)
	}
	return json.Marshal(Envelope{Type: t, Payload: payload})
}

// Decode unwraps an envelope into a pointer to the matching message type.
func Decode(data []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshalling envelope: %w", err)
	}

	var msg any
	switch env.Type {
	case TypeGrantRequest:
		msg = &GrantRequest{}
	case TypeGrantConfirm:
		msg = &GrantConfirm{}
	case TypeGrantDeny:
		msg = &GrantDeny{}
	case TypeSyncRequest:
		msg = &SyncRequest{}
	case TypeSync:
		msg = &InventorySync{}
	case TypeItemUpdate:
		msg = &ItemUpdate{}
	case TypeItemRemoved:
		msg = &ItemRemoved{}
	case TypeItemAction:
		msg = &ItemAction{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, env.Type)
	}

	if err := json.Unmarshal(env.Payload, msg); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", env.Type, err)
	}
	return msg, nil
}
