// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"
)

// Account is a registered identity. Timestamps are unix seconds.
type Account struct { //nolint:govet // fieldalignment not critical for models
	ID                 int64  `db:"id" json:"id"`
	FirstName          string `db:"first_name" json:"firstName"`
	LastName           string `db:"last_name" json:"lastName"`
	Email              string `db:"email" json:"email"`
	PasswordHash       string `db:"password_hash" json:"-"`
	EmailVerified      bool   `db:"email_verified" json:"emailVerified"`
	EmailCode          string `db:"email_code" json:"-"`
	EmailCodeExpiresAt int64  `db:"email_code_expires_at" json:"-"`
	EmailCodeAttempts  int    `db:"email_code_attempts" json:"-"`
	ProfileDone        bool   `db:"profile_done" json:"profileDone"`
	BirthDate          string `db:"birth_date" json:"birthDate"`
	Bio                string `db:"bio" json:"bio"`
	Instagram          string `db:"instagram" json:"instagram"`
	Snapchat           string `db:"snapchat" json:"snapchat"`
	TikTok             string `db:"tiktok" json:"tiktok"`
	Twitter            string `db:"twitter" json:"twitter"`
	Facebook           string `db:"facebook" json:"facebook"`
	CreatedAt          int64  `db:"created_at" json:"-"`
	UpdatedAt          int64  `db:"updated_at" json:"-"`
}

// CodeExpired reports whether the stored code is past its expiry at now.
// An account without a code has expiry 0 and is always expired.
func (a *Account) CodeExpired(now time.Time) bool {
	return now.Unix() > a.EmailCodeExpiresAt
}

// HasSocial reports whether at least one social handle is set.
func (a *Account) HasSocial() bool {
	for _, s := range []string{a.Instagram, a.Snapchat, a.TikTok, a.Twitter, a.Facebook} {
		if s != "" {
			return true
		}
	}
	return false
}

// ProfileComplete reports whether the profile carries everything other
// members see in a cruise feed.
func (a *Account) ProfileComplete() bool {
	return a.FirstName != "" && a.LastName != "" && a.BirthDate != "" && a.Bio != "" && a.HasSocial()
}

// PublicProfile is the part of an account shown to other members.
type PublicProfile struct { //nolint:govet // fieldalignment not critical for models
	ID        int64  `db:"id" json:"userId"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	BirthDate string `db:"birth_date" json:"birthDate"`
	Bio       string `db:"bio" json:"bio"`
	Instagram string `db:"instagram" json:"instagram"`
	Snapchat  string `db:"snapchat" json:"snapchat"`
	TikTok    string `db:"tiktok" json:"tiktok"`
	Twitter   string `db:"twitter" json:"twitter"`
	Facebook  string `db:"facebook" json:"facebook"`
}
