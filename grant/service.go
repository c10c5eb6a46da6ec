package grant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/epiclo/go-session-middleware/core"
	"github.com/epiclo/go-session-middleware/token"
)

// Default lifetimes.
const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour

	// DefaultRenewWithin is the remaining refresh token lifetime below which
	// a rotation also re-mints the refresh token.
	DefaultRenewWithin = 15 * 24 * time.Hour
)

// Service issues, rotates and revokes refresh token grants. It implements
// core.UserStore.
type Service struct {
	issuer *token.Issuer
	users  UserRepository
	grants Repository

	accessTTL   time.Duration
	refreshTTL  time.Duration
	renewWithin time.Duration
	now         func() time.Time
	newID       func() string
	logger      core.Logger
}

var _ core.UserStore = (*Service)(nil)

// New creates a Service signing with issuer and persisting to users and
// grants.
func New(issuer *token.Issuer, users UserRepository, grants Repository, opts ...Option) (*Service, error) {
	if issuer == nil {
		return nil, errors.New("issuer cannot be nil")
	}
	if users == nil {
		return nil, errors.New("user repository cannot be nil")
	}
	if grants == nil {
		return nil, errors.New("grant repository cannot be nil")
	}

	s := &Service{
		issuer:      issuer,
		users:       users,
		grants:      grants,
		accessTTL:   DefaultAccessTokenTTL,
		refreshTTL:  DefaultRefreshTokenTTL,
		renewWithin: DefaultRenewWithin,
		now:         issuer.Now,
		newID:       uuid.NewString,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return s, nil
}

// IssueTokens starts a new grant for userID and returns its first token
// pair. It is called once per login.
func (s *Service) IssueTokens(ctx context.Context, userID string) (core.TokenPair, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return core.TokenPair{}, err
	}

	now := s.now()
	g := &Grant{
		ID:        s.newID(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshTTL),
	}
	if err := s.grants.CreateGrant(ctx, g); err != nil {
		return core.TokenPair{}, fmt.Errorf("create grant: %w", err)
	}

	refreshToken, err := s.signRefresh(user.ID, g.ID)
	if err != nil {
		return core.TokenPair{}, err
	}
	accessToken, err := s.signAccess(user.ID)
	if err != nil {
		return core.TokenPair{}, err
	}

	if s.logger != nil {
		s.logger.Info("grant issued", "user_id", user.ID, "token_id", g.ID)
	}

	return core.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// FindUserByID returns the user or core.ErrUserNotFound.
func (s *Service) FindUserByID(ctx context.Context, userID string) (*core.User, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user %q: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("find user %q: %w", userID, core.ErrUserNotFound)
	}
	return user, nil
}

// RotateRefreshToken checks the grant named by tokenID and issues a new
// access token. The refresh token is re-minted under the same token id, and
// the grant extended, only when claimedExpiry is less than the renewal
// window away; otherwise rawRefreshToken is returned unchanged.
func (s *Service) RotateRefreshToken(ctx context.Context, user *core.User, tokenID string, claimedExpiry time.Time, rawRefreshToken string) (core.TokenPair, error) {
	if user == nil {
		return core.TokenPair{}, core.ErrUserNotFound
	}

	g, err := s.grants.GetGrant(ctx, tokenID)
	if err != nil {
		return core.TokenPair{}, fmt.Errorf("get grant %q: %w", tokenID, err)
	}

	now := s.now()
	switch {
	case g.UserID != user.ID:
		return core.TokenPair{}, fmt.Errorf("%w: grant %q belongs to another user", ErrGrantRevoked, tokenID)
	case !g.Active(now):
		return core.TokenPair{}, fmt.Errorf("%w: grant %q is disabled or expired", ErrGrantRevoked, tokenID)
	}

	refreshToken := rawRefreshToken
	if claimedExpiry.Sub(now) < s.renewWithin {
		refreshToken, err = s.signRefresh(user.ID, tokenID)
		if err != nil {
			return core.TokenPair{}, err
		}
		if err := s.grants.ExtendGrant(ctx, tokenID, now.Add(s.refreshTTL)); err != nil {
			return core.TokenPair{}, fmt.Errorf("extend grant %q: %w", tokenID, err)
		}
		if s.logger != nil {
			s.logger.Debug("refresh token renewed", "user_id", user.ID, "token_id", tokenID)
		}
	}

	accessToken, err := s.signAccess(user.ID)
	if err != nil {
		return core.TokenPair{}, err
	}

	return core.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Revoke disables the grant so its refresh token can no longer be rotated.
func (s *Service) Revoke(ctx context.Context, tokenID string) error {
	if err := s.grants.DisableGrant(ctx, tokenID); err != nil {
		return fmt.Errorf("disable grant %q: %w", tokenID, err)
	}
	if s.logger != nil {
		s.logger.Info("grant revoked", "token_id", tokenID)
	}
	return nil
}

// RevokeToken decodes a refresh token and revokes its grant. A token that
// no longer verifies is ignored.
func (s *Service) RevokeToken(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.DecodeRefresh(refreshToken)
	if err != nil {
		if s.logger != nil {
			s.logger.Debug("ignoring undecodable refresh token on revoke", "error", err)
		}
		return nil
	}
	return s.Revoke(ctx, claims.TokenID)
}

func (s *Service) signAccess(userID string) (string, error) {
	return s.issuer.Create(
		&token.AccessClaims{UserID: userID},
		token.Subject(token.SubjectAccess),
		token.ExpiresIn(s.accessTTL),
	)
}

func (s *Service) signRefresh(userID, tokenID string) (string, error) {
	return s.issuer.Create(
		&token.RefreshClaims{UserID: userID, TokenID: tokenID},
		token.Subject(token.SubjectRefresh),
		token.ExpiresIn(s.refreshTTL),
	)
}
