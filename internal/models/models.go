package models

// Origin types stamped into chunk metadata.
const (
	OriginFile = "file"
	OriginWeb  = "web"
)

// Metadata keys shared between ingestion and retrieval.
const (
	MetaUserID = "userId"
	MetaOrigin = "origin"
	MetaSource = "source"
	MetaChunk  = "chunkId"
)

// ContentChunk is a bounded span of normalized text plus its origin
// metadata. Chunks are immutable once produced; ownership passes to the
// store on a successful write.
type ContentChunk struct {
	Text         string
	Metadata     map[string]string
	SourceLength int
}

// FileInput is one uploaded file: declared name, declared media type and
// the raw bytes from the multipart stream.
type FileInput struct {
	Name      string
	MediaType string
	Data      []byte
}

// IngestionRequest is one batch of files and/or web URLs for one owner.
// Consumed once, never persisted.
type IngestionRequest struct {
	UserID string
	Files  []FileInput
	URLs   []string
}

// Empty reports whether the request carries nothing to ingest.
func (r IngestionRequest) Empty() bool {
	return len(r.Files) == 0 && len(r.URLs) == 0
}

// FailureKind classifies an ingestion failure.
type FailureKind string

const (
	// FailureParse means a single file or URL could not be converted to chunks.
	FailureParse FailureKind = "parse"
	// FailurePersist means chunks were produced but could not be stored.
	FailurePersist FailureKind = "persist"
)

// Failure is one structured failure entry: which item and what went wrong.
type Failure struct {
	Item string      `json:"item"`
	Kind FailureKind `json:"kind"`
	Err  string      `json:"error"`
}

// IngestionResult is the terminal outcome of one ingestion batch. It is
// never mutated after construction.
type IngestionResult struct {
	Succeeded int       `json:"succeeded"`
	Failures  []Failure `json:"failures,omitempty"`
}

// OK reports whether the batch completed without a single failure.
func (r IngestionResult) OK() bool {
	return len(r.Failures) == 0
}

// RetrievalRequest names the query, the owner partition and the selected
// source identifiers. An empty selection yields no context.
type RetrievalRequest struct {
	Query   string
	UserID  string
	Sources []string
}

// ScoredDocument is one retrieval hit. Score is a cosine similarity in
// [0, 1]; SourceName is the identifier of the source that produced it.
type ScoredDocument struct {
	Text       string
	Score      float32
	SourceName string
	Metadata   map[string]string
}

// ChatMessage is one prior exchange in the surrounding chat session.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationTurn drives one full orchestration pass and is discarded
// afterwards. History is owned by the surrounding session.
type ConversationTurn struct {
	Message string
	Files   []FileInput
	History []ChatMessage
	UserID  string
	Sources []string
}

// MessageFragment is a structured fragment from the generation stream,
// exposing its content field. Raw string fragments are the other accepted
// shape.
type MessageFragment struct {
	Content string `json:"content"`
}
