package connectors

import "pricescout/internal"

// MailConnector pulls recent messages from one mailbox provider. Raw
// always carries the full RFC 5322 message so parsing happens in one
// place downstream.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
