// Package documents stores contract PDFs on disk, one directory per
// application with a fixed slot per document: the initial contract and one
// signature per signer role. Slots are overwritable so re-signing replaces
// the prior upload.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"homelet/internal/models"
)

const (
	DefaultUploadDir       = "/tmp/homelet/uploads/contracts"
	DefaultMaxUploadSizeMB = 15

	contractSlot = "contract.pdf"
)

var pdfMagic = []byte("%PDF-")

// Store persists contract documents and returns a retrievable URL for each.
type Store interface {
	StoreContract(ctx context.Context, applicationID uint, content []byte) (string, error)
	StoreSignature(ctx context.Context, applicationID uint, signer models.Role, content []byte) (string, error)
}

type diskStore struct {
	uploadDir          string
	publicBase         string
	maxUploadSizeBytes int64
}

// NewDiskStore returns a Store writing under uploadDir and building URLs
// below publicBase (the route the server mounts the directory at).
func NewDiskStore(uploadDir, publicBase string, maxUploadSizeMB int) Store {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	return &diskStore{
		uploadDir:          uploadDir,
		publicBase:         publicBase,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

func (s *diskStore) StoreContract(_ context.Context, applicationID uint, content []byte) (string, error) {
	return s.store(applicationID, contractSlot, content)
}

func (s *diskStore) StoreSignature(_ context.Context, applicationID uint, signer models.Role, content []byte) (string, error) {
	return s.store(applicationID, fmt.Sprintf("signature_%s.pdf", signer), content)
}

func (s *diskStore) store(applicationID uint, slot string, content []byte) (string, error) {
	if err := s.validate(content); err != nil {
		return "", err
	}

	rel := filepath.Join(fmt.Sprintf("%d", applicationID), slot)
	abs := filepath.Join(s.uploadDir, rel)
	if err := writeBytesToFile(abs, content); err != nil {
		return "", models.NewStorageFailureError("Failed to store document", err)
	}
	return fmt.Sprintf("%s/%d/%s", s.publicBase, applicationID, slot), nil
}

func (s *diskStore) validate(content []byte) error {
	if len(content) == 0 {
		return models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}
	if !IsPDF(content) {
		return models.NewValidationError("Contract documents must be PDF files")
	}
	return nil
}

// IsPDF sniffs the content rather than trusting a client-supplied content
// type. The magic prefix check catches files DetectContentType misreads.
func IsPDF(content []byte) bool {
	if !bytes.HasPrefix(content, pdfMagic) {
		return false
	}
	return http.DetectContentType(content) == "application/pdf"
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
