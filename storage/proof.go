package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"
)

// MaxProofSize bounds a single uploaded proof.
const MaxProofSize = 10 << 20

var (
	ErrProofNotFound = errors.New("proof not found")
	ErrProofTooLarge = fmt.Errorf("proof exceeds %d bytes", MaxProofSize)
	ErrEmptyProof    = errors.New("proof is empty")
)

// Proof describes a stored piece of result evidence. Ref is the hex BLAKE2b-256
// digest of the content, so uploading the same file twice yields the same ref.
type Proof struct {
	Ref         string `json:"ref"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	URL         string `json:"url,omitempty"`
}

// ProofStore keeps proofs as opaque content-addressed blobs.
type ProofStore interface {
	Put(ctx context.Context, contentType string, r io.Reader) (*Proof, error)
	Get(ctx context.Context, ref string) (io.ReadCloser, *Proof, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// readProof buffers the upload and derives its ref.
func readProof(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxProofSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read proof: %w", err)
	}
	if len(data) == 0 {
		return nil, "", ErrEmptyProof
	}
	if len(data) > MaxProofSize {
		return nil, "", ErrProofTooLarge
	}
	sum := blake2b.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// ValidRef reports whether ref has the shape of a proof digest.
func ValidRef(ref string) bool {
	if len(ref) != hex.EncodedLen(blake2b.Size256) {
		return false
	}
	_, err := hex.DecodeString(ref)
	return err == nil
}

func objectKey(ref string) string {
	return "proofs/" + ref
}

func newReader(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}
