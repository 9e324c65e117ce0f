package storer

type Kind int

const (
	KindDocument Kind = iota
	KindMessage
	KindVectorEmbedding
)

var collections = map[Kind]string{
	KindDocument:        "documents",
	KindMessage:         "messages",
	KindVectorEmbedding: "vector_embeddings",
}

// Collection is the table or collection name an entity kind is stored in.
func (k Kind) Collection() string {
	name, ok := collections[k]
	if !ok {
		panic("no collection registered for entity kind")
	}
	return name
}

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "document"
	case KindMessage:
		return "message"
	case KindVectorEmbedding:
		return "vector embedding"
	}
	return "unknown"
}
