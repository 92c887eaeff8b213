package storage

import (
	"context"
	"io"
	"sync"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryProofStore keeps proofs in process memory.
type MemoryProofStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

func NewMemoryProofStore() *MemoryProofStore {
	return &MemoryProofStore{blobs: make(map[string]memoryBlob)}
}

func (s *MemoryProofStore) Put(_ context.Context, contentType string, r io.Reader) (*Proof, error) {
	data, ref, err := readProof(r)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[ref]; !ok {
		s.blobs[ref] = memoryBlob{data: data, contentType: contentType}
	}
	return &Proof{Ref: ref, ContentType: s.blobs[ref].contentType, Size: int64(len(data))}, nil
}

func (s *MemoryProofStore) Get(_ context.Context, ref string) (io.ReadCloser, *Proof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[ref]
	if !ok {
		return nil, nil, ErrProofNotFound
	}
	return newReader(blob.data), &Proof{Ref: ref, ContentType: blob.contentType, Size: int64(len(blob.data))}, nil
}

func (s *MemoryProofStore) Exists(_ context.Context, ref string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[ref]
	return ok, nil
}
