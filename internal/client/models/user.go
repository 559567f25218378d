package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/healthup/internal/common"
)

// User is the session record: the signed-in identity plus its optional
// bearer token. Fields the client does not know about are kept in Profile
// and written back unchanged.
type User struct {
	ID          string
	Username    string
	Email       string
	Name        string
	AccessToken string
	Token       string
	Profile     map[string]json.RawMessage
}

// BearerToken returns the token to send in the Authorization header,
// preferring accessToken over token. Empty means cookie-based auth.
func (u *User) BearerToken() string {
	if u == nil {
		return ""
	}
	if u.AccessToken != "" {
		return u.AccessToken
	}
	return u.Token
}

func (u *User) DisplayName() string {
	switch {
	case u == nil:
		return ""
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

// TokenExpiry reads the exp claim of a JWT bearer token without verifying
// its signature. The client never trusts it for authorization decisions.
func (u *User) TokenExpiry() (time.Time, error) {
	tok := u.BearerToken()
	if tok == "" {
		return time.Time{}, common.ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, common.ErrNoTokenExpiry
	}
	return claims.ExpiresAt.Time, nil
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Profile != nil {
		c.Profile = make(map[string]json.RawMessage, len(u.Profile))
		for k, v := range u.Profile {
			c.Profile[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

var userKnownKeys = []string{"id", "_id", "username", "email", "name", "accessToken", "token"}

func (u *User) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("user record: expected object")
	}

	id := ParseID(raw["id"])
	if id == "" {
		id = ParseID(raw["_id"])
	}

	*u = User{
		ID:          id,
		Username:    rawString(raw["username"]),
		Email:       rawString(raw["email"]),
		Name:        rawString(raw["name"]),
		AccessToken: rawString(raw["accessToken"]),
		Token:       rawString(raw["token"]),
	}

	for _, k := range userKnownKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		u.Profile = raw
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Profile)+6)
	for k, v := range u.Profile {
		out[k] = v
	}
	set := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	set("id", u.ID)
	set("username", u.Username)
	set("email", u.Email)
	set("name", u.Name)
	set("accessToken", u.AccessToken)
	set("token", u.Token)
	return json.Marshal(out)
}

// ParseID normalises a JSON identifier that may be a string or a number.
func ParseID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		return n.String()
	}
	return ""
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the profile sent to the registration endpoint.
type Registration struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

func (r Registration) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return invalid("email", "is required")
	}
	if r.Password == "" {
		return invalid("password", "is required")
	}
	return nil
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" {
		return invalid("email", "is required")
	}
	if c.Password == "" {
		return invalid("password", "is required")
	}
	return nil
}
