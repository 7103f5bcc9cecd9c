package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rpattn/formexport/internal/domain"
)

func TestDispatcherCallsAllHandlers(t *testing.T) {
	dispatcher := NewDispatcher()
	var calls []string
	first := errors.New("mail failed")

	dispatcher.Subscribe(func(_ context.Context, event ArchiveDownloaded) error {
		calls = append(calls, "mail:"+event.Password)
		return first
	})
	dispatcher.Subscribe(nil)
	dispatcher.Subscribe(func(_ context.Context, event ArchiveDownloaded) error {
		calls = append(calls, "audit:"+event.Account.AccountName)
		return nil
	})

	err := dispatcher.Dispatch(context.Background(), ArchiveDownloaded{
		Account:  domain.Account{AccountName: "editor"},
		Password: "pw",
	})
	if !errors.Is(err, first) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
	if len(calls) != 2 || calls[0] != "mail:pw" || calls[1] != "audit:editor" {
		t.Fatalf("unexpected calls %v", calls)
	}
}

func TestDispatcherWithoutHandlers(t *testing.T) {
	if err := NewDispatcher().Dispatch(context.Background(), ArchiveDownloaded{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
