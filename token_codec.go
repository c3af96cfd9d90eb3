package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenCodecImpl implements the TokenCodec interface
type TokenCodecImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
	decorator       ClaimsDecorator
}

// NewTokenCodec creates a new TokenCodec instance. tokenExpiration is in
// hours; zero issues tokens without an expiry claim.
func NewTokenCodec(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodecImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
		decorator:       noopClaimsDecorator{},
	}
}

// WithLogger replaces the codec logger.
func (tc *TokenCodecImpl) WithLogger(logger Logger) *TokenCodecImpl {
	if logger != nil {
		tc.logger = logger
	}
	return tc
}

// WithClaimsDecorator configures a ClaimsDecorator invoked by Mint before
// signing.
func (tc *TokenCodecImpl) WithClaimsDecorator(decorator ClaimsDecorator) *TokenCodecImpl {
	tc.decorator = normalizeClaimsDecorator(decorator)
	return tc
}

// Mint builds the canonical claims for an account, runs the configured
// decorator, and signs the result.
func (tc *TokenCodecImpl) Mint(ctx context.Context, account *Account) (string, error) {
	if account == nil {
		return "", errors.New("account is required", errors.CategoryBadInput)
	}

	claims := tc.newClaims(account)
	snapshot := captureImmutableClaims(claims)

	decorator := normalizeClaimsDecorator(tc.decorator)
	if err := decorator.Decorate(ctx, account, claims); err != nil {
		tc.logger.Error("claims decorator failed", "error", err)
		return "", err
	}

	if err := snapshot.validate(claims); err != nil {
		tc.logger.Error("claims decorator mutated immutable claims", "error", err)
		return "", err
	}

	return tc.Encode(claims)
}

// Encode signs the given claims using the configured signing key. Registered
// fields the codec enforces on Decode (issuer, audience) are stamped onto
// claims that lack them, so anything Encode signs Decode will accept.
func (tc *TokenCodecImpl) Encode(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	if err := claims.validateStructure(); err != nil {
		return "", err
	}

	tc.stampRegisteredClaims(claims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Decode parses and verifies a token string, returning structured claims.
// It only checks signature and structure; matching the claims against a live
// account is the caller's responsibility.
func (tc *TokenCodecImpl) Decode(tokenString string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}
	if len(tc.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(tc.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec decode encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrInvalidToken.Category, ErrInvalidToken.Message).
			WithTextCode(ErrInvalidToken.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		tc.logger.Error("TokenCodec decode could not extract claims")
		return nil, ErrInvalidToken
	}

	if err := claims.validateStructure(); err != nil {
		return nil, err
	}

	return claims, nil
}

func (tc *TokenCodecImpl) newClaims(account *Account) *TokenClaims {
	claims := ClaimsFor(account)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject: account.ID.String(),
	}

	if tc.tokenExpiration > 0 {
		claims.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Duration(tc.tokenExpiration) * time.Hour))
	}

	tc.stampRegisteredClaims(claims)

	return claims
}

// stampRegisteredClaims fills in the registered fields the codec owns,
// leaving values the caller already set untouched.
func (tc *TokenCodecImpl) stampRegisteredClaims(claims *TokenClaims) {
	if claims.Issuer == "" {
		claims.Issuer = tc.issuer
	}

	if len(claims.Audience) == 0 && len(tc.audience) > 0 {
		aud := make(jwt.ClaimStrings, len(tc.audience))
		copy(aud, tc.audience)
		claims.Audience = aud
	}

	if claims.IssuedAt == nil {
		claims.IssuedAt = jwt.NewNumericDate(time.Now())
	}

	ensureTokenID(&claims.RegisteredClaims)
}
