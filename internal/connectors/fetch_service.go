package connectors

import (
	"pricescout/internal/storage"
)

// FetchService pulls a batch from the mailbox and stores every message
// not seen before.
type FetchService struct {
	connector MailConnector
	mailStore *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
}

func NewFetchService(store *storage.Store, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		connector: connector,
		mailStore: NewMailStoreService(store, rawMailDir),
	}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		stored, err := s.mailStore.Store(msg)
		if err != nil {
			return result, err
		}
		if stored {
			result.Stored++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}
