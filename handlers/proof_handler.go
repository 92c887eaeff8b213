package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Dosada05/tournament-engine/storage"
)

type ProofHandler struct {
	proofStore storage.ProofStore
}

func NewProofHandler(ps storage.ProofStore) *ProofHandler {
	return &ProofHandler{proofStore: ps}
}

// UploadHandler godoc
// @Summary Upload a proof
// @Description Stores a screenshot or replay and returns the ref to quote in result submissions and disputes.
// @Tags proofs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Proof file"
// @Success 201 {object} storage.Proof
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Security BearerAuth
// @Router /proofs [post]
func (h *ProofHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentActor(w, r); !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, storage.MaxProofSize+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			mapServiceErrorToHTTP(w, r, storage.ErrProofTooLarge)
			return
		}
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get proof file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	proof, err := h.proofStore.Put(r.Context(), contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, proof)
}

func (h *ProofHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	ref, err := getIDFromURL(r, "ref")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	body, proof, err := h.proofStore.Get(r.Context(), ref)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", proof.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
