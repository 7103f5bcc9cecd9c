package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rpattn/formexport/internal/domain"
)

// ArchiveDownloadedName identifies the event in logs.
const ArchiveDownloadedName = "csv_data_download_archive_downloaded_event"

// ArchiveDownloaded is raised once a password protected archive is ready for its requester.
type ArchiveDownloaded struct {
	Account  domain.Account
	Password string
	Locale   string
	Filename string
}

// Handler reacts to an ArchiveDownloaded event.
type Handler func(ctx context.Context, event ArchiveDownloaded) error

// Dispatcher fans an event out to every subscribed handler in subscription order.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers handler for ArchiveDownloaded events.
func (d *Dispatcher) Subscribe(handler Handler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handler)
}

// Dispatch calls every handler, even when an earlier one fails, and joins their errors.
func (d *Dispatcher) Dispatch(ctx context.Context, event ArchiveDownloaded) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
