package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/WanDrewBerry/mall-map-backend/internal/blocklist"
	"github.com/WanDrewBerry/mall-map-backend/internal/logging"
	"github.com/WanDrewBerry/mall-map-backend/internal/models"
	"github.com/WanDrewBerry/mall-map-backend/internal/repo"
	"github.com/WanDrewBerry/mall-map-backend/internal/tokens"
)

// AuthService owns the login/registration/refresh flows: credential checks
// through the repo, token minting through the issuer, revocation through
// the blocklist.
type AuthService struct {
	Repo      repo.GormRepo
	Issuer    *tokens.Issuer
	Blocklist blocklist.Blocklist
}

type SessionResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	user := &models.User{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateIdentity) {
			l.Warn("register_rejected", "reason", "duplicate_identity")
		} else {
			l.Error("register_failed", "error", err)
		}
		return nil, err
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.Repo.VerifyCredentials(ctx, email, password)
	if err != nil {
		// distinct kinds for the log, one message for the client
		switch {
		case errors.Is(err, repo.ErrNotFound):
			l.Warn("login_rejected", "reason", "unknown_email")
		case errors.Is(err, repo.ErrBadCredential):
			l.Warn("login_rejected", "reason", "bad_password")
		default:
			l.Error("login_failed", "error", err)
		}
		return nil, err
	}

	if err := s.Repo.TouchLastLogin(ctx, user.ID); err != nil {
		l.Error("last_login_update_failed", "error", err)
	}

	return s.issueSession(ctx, user)
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User) (*SessionResult, error) {
	accessToken, accessExp, err := s.Issuer.AccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, refreshExp, err := s.Issuer.RefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.StoreRefresh(ctx, refreshToken, s.Issuer.RefreshSecret); err != nil {
		return nil, err
	}
	return &SessionResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

// Logout revokes the presented access token and the stored refresh token.
// Both parts are best-effort: a logout must always succeed from the
// client's point of view.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if accessToken != "" {
		if err := s.Blocklist.Add(ctx, accessToken); err != nil {
			l.Error("blocklist_add_failed", "error", err)
		}
	}
	if refreshToken != "" {
		if err := s.Repo.RevokeRefreshByToken(ctx, refreshToken); err != nil {
			l.Error("refresh_revoke_failed", "error", err)
		}
	}
}

// Refresh exchanges a live refresh token for a new session. The old token
// is rotated out; the role comes from the credential store, not the token.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(rawRefresh, s.Issuer.RefreshSecret)
	if err != nil {
		l.Warn("refresh_rejected", "reason", "bad_signature_or_expired")
		return nil, repo.ErrRefreshInvalid
	}
	if err := s.Repo.RefreshUsable(ctx, claims.ID); err != nil {
		l.Warn("refresh_rejected", "reason", "revoked_or_unknown")
		return nil, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return nil, repo.ErrRefreshInvalid
	}
	user, err := s.Repo.GetUserByID(ctx, uint(userID))
	if err != nil {
		return nil, err
	}
	if user.Status != models.StatusActive {
		l.Warn("refresh_rejected", "reason", "inactive_account")
		return nil, repo.ErrRefreshInvalid
	}

	newRefresh, refreshExp, err := s.Issuer.RefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefresh(ctx, claims.ID, newRefresh, s.Issuer.RefreshSecret); err != nil {
		return nil, err
	}
	accessToken, accessExp, err := s.Issuer.AccessToken(user)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}
