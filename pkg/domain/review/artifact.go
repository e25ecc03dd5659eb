package review

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Artifact is the immutable snapshot under review for one run. It is created
// once at run start and shared read-only by every analysis task.
type Artifact struct {
	ID          string    `json:"id"`
	Ref         string    `json:"ref"` // resolvable content reference, e.g. a file path
	ContentHash string    `json:"content_hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewArtifact snapshots a content reference with a hash of its bytes.
func NewArtifact(id, ref string, content []byte) Artifact {
	sum := sha256.Sum256(content)
	return Artifact{
		ID:          id,
		Ref:         ref,
		ContentHash: hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC(),
	}
}
