package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpattn/formexport/internal/domain"
	"github.com/rpattn/formexport/internal/events"
	"github.com/rpattn/formexport/internal/metrics"
	"github.com/rpattn/formexport/internal/repository"
)

type translation struct {
	subject string
	body    string
}

// Body templates take the decryption key as their only argument.
var translations = map[string]translation{
	"en": {subject: "Your CSV data export", body: "Your decryption key is: %s"},
	"de": {subject: "Ihr CSV-Datenexport", body: "Ihr Entschlüsselungsschlüssel lautet: %s"},
	"fr": {subject: "Votre export de données CSV", body: "Votre clé de déchiffrement est : %s"},
}

const defaultLanguage = "en"

// Service mails the archive password to its requester and audits the download.
type Service struct {
	mailer  Mailer
	audit   repository.AuditLogRepository
	from    string
	metrics *metrics.Collector
	logger  *slog.Logger
}

func NewService(mailer Mailer, audit repository.AuditLogRepository, from string, collector *metrics.Collector) *Service {
	return &Service{
		mailer:  mailer,
		audit:   audit,
		from:    from,
		metrics: collector,
		logger:  slog.Default().With("component", "notify"),
	}
}

// Compose builds the password email for locale, falling back to English.
func Compose(from string, account domain.Account, password, locale string) Message {
	lang := strings.ToLower(strings.TrimSpace(locale))
	if idx := strings.IndexAny(lang, "-_"); idx > 0 {
		lang = lang[:idx]
	}
	t, ok := translations[lang]
	if !ok {
		lang = defaultLanguage
		t = translations[defaultLanguage]
	}
	return Message{
		From:     from,
		To:       account.Email,
		Subject:  t.subject,
		Body:     fmt.Sprintf(t.body, password),
		Language: lang,
	}
}

// Notify sends one email with the password and writes one audit entry.
// The audit entry is written even when delivery fails; the delivery error is returned.
func (s *Service) Notify(ctx context.Context, account domain.Account, password, locale, filename string) error {
	var mailErr error
	if strings.TrimSpace(account.Email) == "" {
		mailErr = fmt.Errorf("account %s has no email address", account.AccountName)
	} else {
		mailErr = s.mailer.Send(ctx, Compose(s.from, account, password, locale))
	}
	s.metrics.ObserveNotification(mailErr == nil)
	if mailErr != nil {
		s.logger.Error("password notification failed",
			"recipient", account.Email,
			"account", account.AccountName,
			"filename", filename,
			"error", mailErr,
		)
	}

	message := fmt.Sprintf("%s has downloaded CSV user data", account.AccountName)
	if s.audit != nil {
		if err := s.audit.Record(ctx, domain.AuditEntry{
			AccountID:   account.ID,
			AccountName: account.AccountName,
			Filename:    filename,
			Message:     message,
		}); err != nil {
			s.logger.Error("audit entry failed", "account", account.AccountName, "filename", filename, "error", err)
		}
	}
	s.logger.Info(message, "account", account.AccountName, "filename", filename)
	return mailErr
}

// Handle adapts Notify to the event dispatcher.
func (s *Service) Handle(ctx context.Context, event events.ArchiveDownloaded) error {
	return s.Notify(ctx, event.Account, event.Password, event.Locale, event.Filename)
}
