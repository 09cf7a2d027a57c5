// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package profile manages the public part of an account.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"codeberg.org/typecode/accounts/internal/models"
	"codeberg.org/typecode/accounts/internal/repository"
	"codeberg.org/typecode/accounts/internal/services/account"
)

// DateLayout is the layout of birth dates and cruise departure dates.
const DateLayout = "2006-01-02"

// MaxAgeYears bounds how far back a birth date may lie.
const MaxAgeYears = 100

var ErrInvalidBirthDate = errors.New("invalid birth date")

// Store reads and patches accounts.
type Store interface {
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch models.AccountPatch) error
}

// Update lists the profile fields a user may change. Nil fields are left
// untouched; empty strings clear optional fields.
type Update struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	BirthDate *string `json:"birthDate"`
	Bio       *string `json:"bio"`
	Instagram *string `json:"instagram"`
	Snapchat  *string `json:"snapchat"`
	TikTok    *string `json:"tiktok"`
	Twitter   *string `json:"twitter"`
	Facebook  *string `json:"facebook"`
}

type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a profile service.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// SetClock replaces time.Now for birth date checks.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the account of userID.
func (s *Service) Get(ctx context.Context, userID int64) (*models.Account, error) {
	a, err := s.store.GetAccountByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return a, nil
}

// Update validates u and writes it.
func (s *Service) Update(ctx context.Context, userID int64, u Update) error {
	patch, err := s.patch(u)
	if err != nil {
		return err
	}
	if patch.Empty() {
		_, err := s.Get(ctx, userID)
		return err
	}

	if err := s.store.UpdateAccount(ctx, userID, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return account.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Service) patch(u Update) (models.AccountPatch, error) {
	var p models.AccountPatch

	for _, name := range []struct {
		in  *string
		out **string
	}{
		{u.FirstName, &p.FirstName},
		{u.LastName, &p.LastName},
	} {
		if name.in == nil {
			continue
		}
		if err := account.ValidateName(*name.in); err != nil {
			return p, err
		}
		*name.out = models.Ptr(account.NormalizeName(*name.in))
	}

	if u.BirthDate != nil {
		date := strings.TrimSpace(*u.BirthDate)
		if err := s.checkBirthDate(date); err != nil {
			return p, err
		}
		p.BirthDate = &date
	}

	if u.Bio != nil {
		bio := strings.TrimSpace(*u.Bio)
		if utf8.RuneCountInString(bio) > repository.MaxBioLength {
			return p, &repository.FieldError{Field: "bio", Max: repository.MaxBioLength}
		}
		p.Bio = &bio
	}

	socials := []struct {
		field string
		in    *string
		out   **string
	}{
		{"instagram", u.Instagram, &p.Instagram},
		{"snapchat", u.Snapchat, &p.Snapchat},
		{"tiktok", u.TikTok, &p.TikTok},
		{"twitter", u.Twitter, &p.Twitter},
		{"facebook", u.Facebook, &p.Facebook},
	}
	for _, social := range socials {
		if social.in == nil {
			continue
		}
		handle := strings.TrimSpace(*social.in)
		if utf8.RuneCountInString(handle) > repository.MaxSocialLength {
			return p, &repository.FieldError{Field: social.field, Max: repository.MaxSocialLength}
		}
		*social.out = &handle
	}

	return p, nil
}

func (s *Service) checkBirthDate(date string) error {
	if date == "" {
		return nil
	}
	born, err := time.Parse(DateLayout, date)
	if err != nil {
		return ErrInvalidBirthDate
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if born.After(today) || born.Before(today.AddDate(-MaxAgeYears, 0, 0)) {
		return ErrInvalidBirthDate
	}
	return nil
}

// IsDone reports whether the profile is complete and stores the result.
func (s *Service) IsDone(ctx context.Context, userID int64) (bool, error) {
	a, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}

	done := a.ProfileComplete()
	if done != a.ProfileDone {
		if err := s.store.UpdateAccount(ctx, userID, models.AccountPatch{ProfileDone: &done}); err != nil {
			return false, fmt.Errorf("failed to store profile state: %w", err)
		}
	}
	return done, nil
}
