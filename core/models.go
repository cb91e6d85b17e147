package core

//go:generate go run ../cmd/musgen

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// DefaultK is the number of documents retrieved when a request does not say.
const DefaultK = 8

// ID identifies a stored document. It is a random (version 4) UUID.
type ID uuid.UUID

// NewDocumentID generates a random identifier for a newly ingested document.
func NewDocumentID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical text form of an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}
	return ID(u), nil
}

// String returns the canonical text form, as stored in the documents table.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// ContentDigest returns the hex BLAKE2b-256 digest of text.
// Identical content always produces identical digests.
func ContentDigest(text string) string {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// Document is a unit of ingested knowledge.
// Documents are created once at ingestion and never modified afterwards.
type Document struct {
	ID        ID
	Address   string    // Optional location; empty means absent
	Title     string    // Display name, derived from the source filename
	Content   string    // Full text body, stored verbatim
	Source    string    // Provenance label, surfaced as a reference
	Embedding []float32 // Vector produced by the embedding model at ingestion
}

// Match is a document returned by nearest-neighbor retrieval.
// Distance is measured with the store's configured metric; lower is closer.
type Match struct {
	Document *Document
	Distance float32
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single role-tagged entry in a chat exchange.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// AskRequest is a single incoming question.
// A nil K selects DefaultK; an explicit zero retrieves no documents.
type AskRequest struct {
	Query   string `json:"query"`
	Address string `json:"address,omitempty"`
	K       *int   `json:"k,omitempty"`
}

// Limit returns the number of documents to retrieve for the request.
func (r *AskRequest) Limit() int {
	if r.K == nil {
		return DefaultK
	}
	return *r.K
}

// WithK returns a copy of the request retrieving k documents.
func (r AskRequest) WithK(k int) *AskRequest {
	r.K = &k
	return &r
}

// AskResponse is the structured answer to an AskRequest.
type AskResponse struct {
	Answer     string         `json:"answer"`
	References []string       `json:"references"`
	Data       map[string]any `json:"data"`
}
