package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mentor-portal/internal/auth"
)

// Entry names of the persisted record. One holds the identity claim, the
// others cache role-specific profile blobs derived from it.
const (
	EntryUser = "user"
)

// ProfileKind is one of the role-specific cached blobs.
type ProfileKind string

const (
	ProfileMentee ProfileKind = "menteeData"
	ProfileMentor ProfileKind = "mentorData"
	ProfileAdmin  ProfileKind = "admin"
)

// ProfileKinds lists every blob that must go with the claim on purge or rewrite.
var ProfileKinds = []ProfileKind{ProfileMentee, ProfileMentor, ProfileAdmin}

var (
	ErrUnknownProfile   = errors.New("identity: unknown profile kind")
	ErrMalformedProfile = errors.New("identity: profile blob is not valid JSON")
	ErrMissingEmail     = errors.New("identity: claim has no email")
)

// ParseProfileKind maps an entry name to its ProfileKind.
func ParseProfileKind(s string) (ProfileKind, error) {
	for _, k := range ProfileKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// Store is the durable record of the last identity claim a browser held.
//
// Read never fails: missing, malformed or unreachable records are all
// reported as absent. Purge removes the claim and every profile blob in
// one operation so no blob outlives the claim that justified it; Write drops
// the profile blobs along with the claim it replaces.
type Store interface {
	Read(ctx context.Context) (auth.Claim, bool)
	Write(ctx context.Context, claim auth.Claim) error
	Purge(ctx context.Context) error

	ReadProfile(ctx context.Context, kind ProfileKind) (json.RawMessage, bool)
	WriteProfile(ctx context.Context, kind ProfileKind, blob json.RawMessage) error
}

// Factory returns the store scoped to one browser.
type Factory interface {
	ForDevice(deviceID string) Store
}

func entryNames() []string {
	names := make([]string, 0, len(ProfileKinds)+1)
	names = append(names, EntryUser)
	for _, k := range ProfileKinds {
		names = append(names, string(k))
	}
	return names
}

func validateProfile(kind ProfileKind, blob json.RawMessage) error {
	if _, err := ParseProfileKind(string(kind)); err != nil {
		return err
	}
	if !json.Valid(blob) {
		return ErrMalformedProfile
	}
	return nil
}
