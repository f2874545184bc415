package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Role names the portal understands. The backend may issue others; they are
// carried verbatim and only matter to allow-lists that name them.
type Role string

const (
	RoleMentor  Role = "mentor"
	RoleMentee  Role = "mentee"
	RoleNewUser Role = "newuser"
	RoleAdmin   Role = "admin"
)

var ErrMalformedClaim = errors.New("auth: malformed identity claim")

// Claim is the last identity the browser was told it holds. It is advisory:
// it shapes the UI but grants nothing until a verifier confirms the session.
type Claim struct {
	Email    string  `json:"email"`
	Role     Role    `json:"role"`
	FullName string  `json:"fullname"`
	PhotoURL *string `json:"photo_url"`

	// Extra holds fields the portal does not interpret so a rewrite keeps them.
	Extra map[string]json.RawMessage `json:"-"`
}

// HasEmail reports whether the claim names an identity at all.
func (c Claim) HasEmail() bool {
	return strings.TrimSpace(c.Email) != ""
}

// FirstName is the leading word of FullName, as shown in the navbar.
func (c Claim) FirstName() string {
	fields := strings.Fields(c.FullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

var knownClaimFields = []string{"email", "role", "fullname", "photo_url"}

func (c *Claim) UnmarshalJSON(data []byte) error {
	type plain Claim
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownClaimFields {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*c = Claim(p)
	return nil
}

func (c Claim) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+4)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["email"] = c.Email
	out["role"] = c.Role
	out["fullname"] = c.FullName
	out["photo_url"] = c.PhotoURL
	return json.Marshal(out)
}

// DecodeClaim parses a persisted claim. A record that is not a JSON object
// (including "null") is malformed.
func DecodeClaim(raw string) (Claim, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
		return Claim{}, ErrMalformedClaim
	}

	var c Claim
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return Claim{}, fmt.Errorf("%w: %v", ErrMalformedClaim, err)
	}
	return c, nil
}

// EncodeClaim is the inverse of DecodeClaim.
func EncodeClaim(c Claim) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("auth: failed to marshal claim: %w", err)
	}
	return string(data), nil
}
