package storer

import (
	"time"
)

type Sender string

const (
	SenderUser   Sender = "User"
	SenderAgent  Sender = "Agent"
	SenderSystem Sender = "System"
)

type Document struct {
	Id          string
	AgentId     *string
	Name        string
	TextContent string
	ToolId      *int64
	Vector      []float32
	CreatedAt   time.Time
}

// DocumentPatch carries the fields of a partial update. Nil fields are left
// alone. Vector is only written when set or when ClearVector is true.
// When IfTextContent is set the update only applies while the stored text
// still equals it; otherwise the store returns ErrTextChanged.
type DocumentPatch struct {
	AgentId       *string
	Name          *string
	TextContent   *string
	ToolId        *int64
	Vector        []float32
	ClearVector   bool
	IfTextContent *string
}

func (p DocumentPatch) Apply(doc Document) Document {
	if p.AgentId != nil {
		doc.AgentId = p.AgentId
	}
	if p.Name != nil {
		doc.Name = *p.Name
	}
	if p.TextContent != nil {
		doc.TextContent = *p.TextContent
	}
	if p.ToolId != nil {
		doc.ToolId = p.ToolId
	}
	if p.ClearVector {
		doc.Vector = nil
	}
	if p.Vector != nil {
		doc.Vector = CopyVector(p.Vector)
	}
	return doc
}

type Message struct {
	Id             string
	ConversationId string
	Sender         Sender
	Content        string
	SentAt         time.Time
}

type VectorEmbedding struct {
	Id        string
	Owner     Owner
	Vector    []float32
	CreatedAt time.Time
}

// Page selects a window of a listing. Limit defaults to 100.
type Page struct {
	Skip  int
	Limit int
}

func NewPage(skip, limit int) Page {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = 100
	}
	return Page{Skip: skip, Limit: limit}
}

func CopyVector(vec []float32) []float32 {
	if vec == nil {
		return nil
	}
	cpy := make([]float32, len(vec))
	copy(cpy, vec)
	return cpy
}
