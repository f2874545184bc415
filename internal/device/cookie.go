package device

import (
	"net/http"
	"time"
)

const (
	CookieName = "portal_device"

	// cookieLifetime approximates localStorage: the record outlives any
	// single session and is only cleared by explicit invalidation.
	cookieLifetime = 400 * 24 * time.Hour
)

// CookieOptions defines how device cookies are issued.
type CookieOptions struct {
	Path     string
	HttpOnly bool
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// normalize applies safe defaults without breaking callers
func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if !o.HttpOnly {
		o.HttpOnly = true
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteLaxMode
	}
	return o
}

// FromRequest returns the device ID carried by the request, if any.
func FromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || !ValidID(cookie.Value) {
		return "", false
	}
	return cookie.Value, true
}

// Ensure returns the request's device ID, issuing a fresh one when the
// browser has none.
func Ensure(w http.ResponseWriter, r *http.Request, opts CookieOptions) (string, error) {
	if id, ok := FromRequest(r); ok {
		return id, nil
	}

	id, err := GenerateID()
	if err != nil {
		return "", err
	}
	SetCookie(w, id, opts)
	return id, nil
}

// SetCookie issues the device cookie to the client.
func SetCookie(w http.ResponseWriter, deviceID string, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    deviceID,
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  time.Now().Add(cookieLifetime),
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

// ClearCookie removes the device cookie from the client.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: opts.HttpOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}
