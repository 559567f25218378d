package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/healthup/internal/common"
)

func TestUser_UnmarshalJSON_NormalisesIDAndKeepsProfile(t *testing.T) {
	var u User
	err := json.Unmarshal([]byte(`{"_id": 42, "username": "a", "token": "t1", "age": 31, "goals": ["run"]}`), &u)
	require.NoError(t, err)

	assert.Equal(t, "42", u.ID)
	assert.Equal(t, "a", u.Username)
	assert.Equal(t, "t1", u.BearerToken())
	require.Contains(t, u.Profile, "age")
	require.Contains(t, u.Profile, "goals")
	assert.NotContains(t, u.Profile, "_id")

	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"42","username":"a","token":"t1","age":31,"goals":["run"]}`, string(out))
}

func TestUser_UnmarshalJSON_PrefersIDOverUnderscoreID(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "_id": "y"}`), &u))
	assert.Equal(t, "x", u.ID)
}

func TestUser_UnmarshalJSON_RejectsNonObject(t *testing.T) {
	var u User
	require.Error(t, json.Unmarshal([]byte(`"nope"`), &u))
	require.Error(t, json.Unmarshal([]byte(`null`), &u))
}

func TestUser_BearerToken_PrefersAccessToken(t *testing.T) {
	u := &User{AccessToken: "a", Token: "b"}
	assert.Equal(t, "a", u.BearerToken())

	var nilUser *User
	assert.Empty(t, nilUser.BearerToken())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann", (&User{Name: "Ann", Username: "ann1"}).DisplayName())
	assert.Equal(t, "ann1", (&User{Username: "ann1", Email: "a@b.c"}).DisplayName())
	assert.Equal(t, "a@b.c", (&User{Email: "a@b.c"}).DisplayName())
}

func TestUser_Clone_IsDeep(t *testing.T) {
	u := &User{ID: "1", Profile: map[string]json.RawMessage{"k": json.RawMessage(`1`)}}
	c := u.Clone()
	c.Profile["k"][0] = '2'
	c.ID = "2"

	assert.Equal(t, "1", u.ID)
	assert.Equal(t, json.RawMessage(`1`), u.Profile["k"])
}

func TestUser_TokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	got, err := (&User{AccessToken: signed}).TokenExpiry()
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = (&User{Token: noExp}).TokenExpiry()
	require.ErrorIs(t, err, common.ErrNoTokenExpiry)

	_, err = (&User{Token: "opaque"}).TokenExpiry()
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = (&User{}).TokenExpiry()
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCredentials_Validate(t *testing.T) {
	require.NoError(t, Credentials{Email: "a@b.com", Password: "x"}.Validate())
	require.ErrorIs(t, Credentials{Password: "x"}.Validate(), ErrValidation)
	require.ErrorIs(t, Registration{Email: "a@b.com"}.Validate(), ErrValidation)
}
