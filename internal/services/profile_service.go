package services

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/hiro4859/syukatsu-base-v2/internal/app"
	"github.com/hiro4859/syukatsu-base-v2/internal/models"
	"github.com/hiro4859/syukatsu-base-v2/internal/store"
)

type ProfileService struct {
	Log *log.Logger
}

func NewProfileService(l *log.Logger) *ProfileService {
	return &ProfileService{Log: l}
}

// Get returns the user's profile, creating an empty one on first access.
func (s *ProfileService) Get(ctx context.Context, scope app.Scope) (*models.UserProfile, error) {
	p, err := scope.Data.UserProfiles().Get(ctx, scope.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	p = &models.UserProfile{Base: models.Base{ID: scope.UserID}}
	if err := scope.Data.UserProfiles().Insert(ctx, p); err != nil {
		return nil, err
	}
	s.Log.WithField("user_id", scope.UserID).Info("profile created")
	return p, nil
}

type ProfileInput struct {
	FullName       *string
	University     *string
	Department     *string
	GraduationYear *int
}

func (s *ProfileService) Update(ctx context.Context, scope app.Scope, in ProfileInput) (*models.UserProfile, error) {
	if _, err := s.Get(ctx, scope); err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if in.FullName != nil {
		fields["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.University != nil {
		fields["university"] = strings.TrimSpace(*in.University)
	}
	if in.Department != nil {
		fields["department"] = strings.TrimSpace(*in.Department)
	}
	if in.GraduationYear != nil {
		if y := *in.GraduationYear; y < 1900 || y > 2100 {
			return nil, invalid("graduation_year", "卒業年度が正しくありません")
		}
		fields["graduation_year"] = *in.GraduationYear
	}
	if len(fields) > 0 {
		if err := scope.Data.UserProfiles().Update(ctx, scope.UserID, fields); err != nil {
			return nil, err
		}
	}
	return scope.Data.UserProfiles().Get(ctx, scope.UserID)
}
