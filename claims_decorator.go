package identity

import "context"

// ClaimsDecorator can mutate allowed claim extensions before a token is
// signed. Implementations may only touch the Metadata extension field and
// must leave registered/identity claims untouched so the token's binding to
// the live account stays stable.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, account *Account, claims *TokenClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, account *Account, claims *TokenClaims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, account *Account, claims *TokenClaims) error {
	if f == nil {
		return nil
	}
	return f(ctx, account, claims)
}

type noopClaimsDecorator struct{}

func (noopClaimsDecorator) Decorate(context.Context, *Account, *TokenClaims) error {
	return nil
}

func normalizeClaimsDecorator(d ClaimsDecorator) ClaimsDecorator {
	if d == nil {
		return noopClaimsDecorator{}
	}
	return d
}
