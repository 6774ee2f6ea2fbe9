package listener

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"pricescout/internal/alertmail"
	"pricescout/internal/config"
	"pricescout/internal/connectors"
	gmailconnector "pricescout/internal/connectors/gmail"
	imapconnector "pricescout/internal/connectors/imap"
	"pricescout/internal/export"
	"pricescout/internal/storage"
)

// Service polls a mailbox for marketplace alerts and runs every new
// listing through the pricing pipeline.
type Service struct {
	store     *storage.Store
	cfg       config.Config
	processor *alertmail.Processor
	logger    *slog.Logger
}

func NewService(store *storage.Store, cfg config.Config, processor *alertmail.Processor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cfg: cfg, processor: processor, logger: logger}
}

// Run loops until the context is canceled. A failed cycle is logged and
// retried at the next tick.
func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.RunCycle(ctx); err != nil {
			s.logger.Error("listener cycle failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.MailListenerIntervalSec) * time.Second):
		}
	}
}

func (s *Service) RunCycle(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.MailListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.store, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.MailListenerLabel, s.cfg.MailListenerFetchMax)
	if err != nil {
		return err
	}

	emails, listings, err := s.processor.ProcessPending(ctx, s.cfg.MailListenerBatch, provider)
	if err != nil {
		return err
	}

	if s.cfg.MailListenerAutoExport && listings > 0 {
		if err := s.exportHistory(); err != nil {
			return err
		}
	}

	s.logger.Info("listener cycle done",
		"provider", provider,
		"fetched", fetchResult.Fetched,
		"stored", fetchResult.Stored,
		"emails", emails,
		"listings", listings)
	return nil
}

func (s *Service) exportHistory() error {
	rows, err := s.store.ListAnalyses(0)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	filename := fmt.Sprintf("history_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	outPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
	written, err := export.HistoryToXLSX(rows, outPath)
	if err != nil {
		return err
	}
	s.logger.Info("history exported", "path", written, "rows", len(rows))
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
