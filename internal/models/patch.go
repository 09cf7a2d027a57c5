// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

// AccountPatch is a partial update of an account. Only non-nil fields are
// written.
type AccountPatch struct {
	FirstName          *string
	LastName           *string
	PasswordHash       *string
	EmailVerified      *bool
	EmailCode          *string
	EmailCodeExpiresAt *int64
	EmailCodeAttempts  *int
	ProfileDone        *bool
	BirthDate          *string
	Bio                *string
	Instagram          *string
	Snapchat           *string
	TikTok             *string
	Twitter            *string
	Facebook           *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p == AccountPatch{}
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}
