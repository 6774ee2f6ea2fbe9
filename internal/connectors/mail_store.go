package connectors

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"pricescout/internal"
	"pricescout/internal/storage"
)

// StatusPending marks a stored email awaiting alert processing.
const StatusPending = "pending"

// StatusProcessed and StatusSkipped are set by the processing pass.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
)

// MailStoreService writes the raw message to disk, keyed by content
// hash, and records it in the database with a pending status.
type MailStoreService struct {
	store      *storage.Store
	rawMailDir string
}

func NewMailStoreService(store *storage.Store, rawMailDir string) *MailStoreService {
	return &MailStoreService{store: store, rawMailDir: rawMailDir}
}

// Store is idempotent: a message already known by (provider, message id)
// is neither rewritten nor reset to pending.
func (s *MailStoreService) Store(msg internal.FetchedMailMessage) (bool, error) {
	existing, err := s.store.GetEmailByProviderMessageID(msg.Provider, msg.MessageID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	hashBytes := sha256.Sum256(msg.Raw)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.rawMailDir, 0o755); err != nil {
		return false, err
	}
	rawPath := filepath.Join(s.rawMailDir, hash+".eml")
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, msg.Raw, 0o644); err != nil {
			return false, err
		}
	}

	err = s.store.UpsertEmail(internal.EmailRow{
		Provider:   msg.Provider,
		MessageID:  msg.MessageID,
		Subject:    msg.Subject,
		Sender:     msg.From,
		ReceivedAt: msg.ReceivedAt,
		Hash:       hash,
		Status:     StatusPending,
		RawRef:     rawPath,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
