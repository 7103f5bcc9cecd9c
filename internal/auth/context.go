package auth

import (
	"context"

	"github.com/rpattn/formexport/internal/domain"
)

type contextKey string

const accountKey contextKey = "account"

// ContextWithAccount returns a new context that carries the authenticated account.
func ContextWithAccount(ctx context.Context, account domain.Account) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext retrieves the authenticated account from the context, if any.
func AccountFromContext(ctx context.Context) (domain.Account, bool) {
	if ctx == nil {
		return domain.Account{}, false
	}
	account, ok := ctx.Value(accountKey).(domain.Account)
	if !ok || account.ID == "" {
		return domain.Account{}, false
	}
	return account, true
}
