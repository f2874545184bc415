package verifier

import (
	"context"
	"net/http"
)

type cookiesContextKeyType struct{}

var cookiesKey = cookiesContextKeyType{}

// WithCookies attaches the browser's cookies to ctx so the verifier's
// transport can present them to the authority.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, cookiesKey, cookies)
}

func cookiesFromContext(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(cookiesKey).([]*http.Cookie)
	return cookies
}

// forwardingTransport adds the context's cookies to every outgoing request.
// Cookies the portal issues for itself are not forwarded.
type forwardingTransport struct {
	base http.RoundTripper
	skip map[string]bool
}

func (t *forwardingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cookies := cookiesFromContext(req.Context())
	if len(cookies) > 0 {
		req = req.Clone(req.Context())
		for _, c := range cookies {
			if t.skip[c.Name] {
				continue
			}
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	return t.base.RoundTrip(req)
}
