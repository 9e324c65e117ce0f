package storer

import (
	"fmt"
	"strings"
)

type OwnerKind string

const (
	OwnerMessage  OwnerKind = "message"
	OwnerDocument OwnerKind = "document"
	OwnerAgent    OwnerKind = "agent"
)

// Owner is the single entity an embedding was computed for.
type Owner struct {
	Kind OwnerKind
	Id   string
}

func MessageOwner(id string) Owner {
	return Owner{Kind: OwnerMessage, Id: id}
}

func DocumentOwner(id string) Owner {
	return Owner{Kind: OwnerDocument, Id: id}
}

func AgentOwner(id string) Owner {
	return Owner{Kind: OwnerAgent, Id: id}
}

func (o Owner) Validate() error {
	switch o.Kind {
	case OwnerMessage, OwnerDocument, OwnerAgent:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOwner, o.Kind)
	}
	if len(strings.TrimSpace(o.Id)) == 0 {
		return fmt.Errorf("%w: %s id is empty", ErrInvalidOwner, o.Kind)
	}
	return nil
}

// Unique reports whether at most one embedding may exist for this owner.
func (o Owner) Unique() bool {
	return o.Kind == OwnerMessage || o.Kind == OwnerDocument
}

// Columns spreads the owner over the three nullable owner columns, in
// message, document, agent order.
func (o Owner) Columns() (messageId, documentId, agentId *string) {
	id := o.Id
	switch o.Kind {
	case OwnerMessage:
		messageId = &id
	case OwnerDocument:
		documentId = &id
	case OwnerAgent:
		agentId = &id
	}
	return
}

// OwnerFromColumns is the inverse of Columns. Exactly one column must be set.
func OwnerFromColumns(messageId, documentId, agentId *string) (Owner, error) {
	var owners []Owner
	if messageId != nil {
		owners = append(owners, MessageOwner(*messageId))
	}
	if documentId != nil {
		owners = append(owners, DocumentOwner(*documentId))
	}
	if agentId != nil {
		owners = append(owners, AgentOwner(*agentId))
	}
	if len(owners) != 1 {
		return Owner{}, fmt.Errorf("%w: %d owner columns set", ErrInvalidOwner, len(owners))
	}
	return owners[0], nil
}
