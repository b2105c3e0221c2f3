package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Action names a lifecycle event of a consent document.
type Action string

const (
	EventDocumentGenerated  Action = "document_generated"
	EventDocumentSigned     Action = "document_signed"
	EventSignatureRejected  Action = "signature_rejected"
	EventSignatureRecovered Action = "signature_recovered"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out. Subjects are hashed; raw document
// ids never leave the process through this path.
type Event struct {
	ID          string            `json:"id"`
	Timestamp   time.Time         `json:"timestamp"`
	Action      Action            `json:"action"`
	SubjectHash string            `json:"subject_hash"`
	RequestID   string            `json:"request_id,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// HashSubject returns the hex SHA-256 of a subject identifier.
func HashSubject(subject string) string {
	sum := sha256.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}
