package service

import (
	"context"
	"errors"

	"mining_hub/internal/domain"
	"mining_hub/internal/logger"
	"mining_hub/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthService creates users on first login and binds referral uplines.
// Verification of the Telegram payload happens upstream; this service
// trusts the tg id it is handed.
type AuthService struct {
	users *repository.UserRepository
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{users: repository.NewUserRepository(db)}
}

// Login returns the existing user for the tg id or creates one. A
// referral code supplied on first login binds the upline; codes are
// ignored for returning users (the upline is set once, ever).
func (s *AuthService) Login(ctx context.Context, tgID int64, username, referralCode string) (*domain.User, string, error) {
	user, err := s.users.GetByTgID(ctx, tgID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, "", err
	}

	if user == nil {
		user = domain.NewUser(tgID, username, "")
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", err
		}
		logger.Info("user created", "user_id", user.ID, "tg_id", tgID)

		if referralCode != "" {
			s.bindUpline(ctx, user, referralCode)
		}
	}

	if user.IsBanned {
		return nil, "", domain.ErrNotFound
	}

	token, err := GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) bindUpline(ctx context.Context, user *domain.User, code string) {
	upline, err := s.users.GetByReferralCode(ctx, code)
	if err != nil {
		logger.Warn("referral code not found", "code", code, "user_id", user.ID)
		return
	}
	if upline.ID == user.ID {
		return
	}
	if err := s.users.SetUpline(ctx, user.ID, upline.ID); err != nil {
		logger.Warn("failed to bind upline", "user_id", user.ID, "error", err)
		return
	}
	user.UplineID = &upline.ID
	logger.Info("upline bound", "user_id", user.ID, "upline_id", upline.ID)
}
