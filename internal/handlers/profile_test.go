// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"net/http"
	"testing"

	"codeberg.org/typecode/accounts/internal/handlers"
	"codeberg.org/typecode/accounts/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserData(t *testing.T) {
	env := newEnv(t)
	a := testutil.NewTestAccount(t, env.repo, "ann@x.com", true)

	rec := env.do(env.h.GetUserData, call{userID: a.ID})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"firstName":"Ann","lastName":"Lee","email":"ann@x.com"}`, rec.Body.String())
}

func TestGetUserData_UnknownUser(t *testing.T) {
	env := newEnv(t)

	rec := env.do(env.h.GetUserData, call{userID: 999})

	assertError(t, rec, http.StatusNotFound, handlers.CodeNotFound)
}

func TestUpdateUserProfile(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bio and social", `{"bio":"Sailor","instagram":"@ann"}`, http.StatusOK, ""},
		{"birth date", `{"birthDate":"1990-05-01"}`, http.StatusOK, ""},
		{"unknown field", `{"bio":"Sailor","admin":true}`, http.StatusBadRequest, handlers.CodeInvalidField},
		{"future birth date", `{"birthDate":"2999-01-01"}`, http.StatusBadRequest, handlers.CodeInvalidField},
		{"malformed birth date", `{"birthDate":"01.05.1990"}`, http.StatusBadRequest, handlers.CodeInvalidField},
		{"invalid name", `{"firstName":""}`, http.StatusBadRequest, handlers.CodeInvalidName},
		{"malformed json", `{"bio":`, http.StatusBadRequest, handlers.CodeInvalidField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t)
			a := testutil.NewTestAccount(t, env.repo, "ann@x.com", true)

			rec := env.do(env.h.UpdateUserProfile, call{userID: a.ID, body: tt.body})

			if tt.code == "" {
				assert.Equal(t, tt.status, rec.Code)
				assert.NotEmpty(t, decode(t, rec)["message"])
				return
			}
			assertError(t, rec, tt.status, tt.code)
		})
	}
}

func TestIsProfileDone(t *testing.T) {
	env := newEnv(t)
	a := testutil.NewTestAccount(t, env.repo, "ann@x.com", true)

	rec := env.do(env.h.IsProfileDone, call{userID: a.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profileDone":false}`, rec.Body.String())

	rec = env.do(env.h.UpdateUserProfile, call{userID: a.ID, body: `{"birthDate":"1990-05-01","bio":"Sailor","tiktok":"@ann"}`})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(env.h.IsProfileDone, call{userID: a.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"profileDone":true}`, rec.Body.String())
}
