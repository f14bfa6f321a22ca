package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/hiro4859/syukatsu-base-v2/internal/auth"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくありません")
	ErrEmailTaken         = errors.New("このメールアドレスは既に登録されています")
)

const minPasswordLength = 6

// AuthService owns accounts and sessions. Every change to the current session
// is published on Events.
type AuthService struct {
	DB      *gorm.DB
	Tokens  *auth.Tokens
	Revoker auth.Revoker
	Events  *auth.Broker
	Log     *log.Logger
	Now     func() time.Time
}

func NewAuthService(db *gorm.DB, tokens *auth.Tokens, revoker auth.Revoker, events *auth.Broker, l *log.Logger) *AuthService {
	return &AuthService{DB: db, Tokens: tokens, Revoker: revoker, Events: events, Log: l, Now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) error {
	if email == "" {
		return invalid("email", "メールアドレスを入力してください")
	}
	return nil
}

func checkPassword(field, password string) error {
	if len([]rune(password)) < minPasswordLength {
		return invalid(field, "パスワードは6文字以上にしてください")
	}
	return nil
}

func (s *AuthService) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword("password", password); err != nil {
		return nil, err
	}

	var n int64
	if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if n > 0 {
		return nil, invalid("email", ErrEmailTaken.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{Email: email, PasswordHash: string(hash)}
	if err := s.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.Log.WithField("user_id", u.ID).Info("user signed up")
	return s.startSession(u)
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, invalid("password", "パスワードを入力してください")
	}
	u, err := s.verify(ctx, "email = ?", email, password)
	if err != nil {
		return nil, err
	}
	return s.startSession(*u)
}

func (s *AuthService) startSession(u models.User) (*auth.Session, error) {
	sess, err := s.Tokens.Issue(auth.User{ID: u.ID, Email: u.Email}, s.Now())
	if err != nil {
		return nil, err
	}
	s.Events.Publish(auth.Event{Type: auth.SignedIn, Session: sess})
	return sess, nil
}

// verify loads the user matching the condition and checks the password.
func (s *AuthService) verify(ctx context.Context, cond, arg, password string) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).Where(cond, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// SignOut revokes the token until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return err
	}
	if err := s.Revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.Events.Publish(auth.Event{Type: auth.SignedOut})
	s.Log.WithField("user_id", claims.Subject).Info("user signed out")
	return nil
}

// CurrentSession resolves a bearer token to its session. Revoked tokens and
// tokens of deleted users are ErrInvalidSession.
func (s *AuthService) CurrentSession(ctx context.Context, token string) (*auth.Session, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	revoked, err := s.Revoker.Revoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, auth.ErrInvalidSession
	}
	var u models.User
	err = s.DB.WithContext(ctx).Where("id = ?", claims.Subject).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, auth.ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &auth.Session{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        auth.User{ID: u.ID, Email: u.Email},
	}, nil
}

func (s *AuthService) UpdateEmail(ctx context.Context, sess *auth.Session, email, currentPassword string) (*auth.Session, error) {
	email = normalizeEmail(email)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if currentPassword == "" {
		return nil, invalid("current_password", "現在のパスワードを入力してください")
	}
	u, err := s.verify(ctx, "id = ?", sess.User.ID, currentPassword)
	if err != nil {
		return nil, err
	}
	if email != u.Email {
		var n int64
		if err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return nil, invalid("email", ErrEmailTaken.Error())
		}
		if err := s.DB.WithContext(ctx).Model(u).Update("email", email).Error; err != nil {
			return nil, fmt.Errorf("update email: %w", err)
		}
	}

	updated := *sess
	updated.User.Email = email
	s.Events.Publish(auth.Event{Type: auth.UserUpdated, Session: &updated})
	return &updated, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, sess *auth.Session, current, next, confirm string) error {
	if current == "" {
		return invalid("current_password", "現在のパスワードを入力してください")
	}
	if next == "" {
		return invalid("new_password", "新しいパスワードを入力してください")
	}
	if next != confirm {
		return invalid("confirm_password", "新しいパスワードが一致しません")
	}
	if err := checkPassword("new_password", next); err != nil {
		return err
	}

	u, err := s.verify(ctx, "id = ?", sess.User.ID, current)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.DB.WithContext(ctx).Model(u).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.Events.Publish(auth.Event{Type: auth.UserUpdated, Session: sess})
	return nil
}
