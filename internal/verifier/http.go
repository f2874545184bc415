package verifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "mentor-portal/verifier"

// HTTPVerifier checks the session with a GET against the authority
// endpoint. Only the response status is inspected.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
	tracer   trace.Tracer
}

type Option func(*options)

type options struct {
	timeout     time.Duration
	base        http.RoundTripper
	skipCookies []string
	tracer      trace.Tracer
}

// WithTimeout bounds each round trip. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithTransport replaces the underlying RoundTripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithoutCookies keeps the named cookies from being forwarded.
func WithoutCookies(names ...string) Option {
	return func(o *options) { o.skipCookies = append(o.skipCookies, names...) }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func NewHTTPVerifier(endpoint string, opts ...Option) *HTTPVerifier {
	o := options{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	skip := make(map[string]bool, len(o.skipCookies))
	for _, n := range o.skipCookies {
		skip[n] = true
	}

	return &HTTPVerifier{
		endpoint: endpoint,
		client: &http.Client{
			Timeout:   o.timeout,
			Transport: &forwardingTransport{base: o.base, skip: skip},
			// A redirect is not an authoritative answer.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		tracer: o.tracer,
	}
}

func (v *HTTPVerifier) Verify(ctx context.Context) Result {
	ctx, span := v.tracer.Start(ctx, "verifier.Verify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", v.endpoint)),
	)
	defer span.End()

	res := v.roundTrip(ctx)

	span.SetAttributes(attribute.String("verifier.outcome", res.Outcome.String()))
	if res.Outcome == TransportFailure {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "transport failure")
	}
	return res
}

func (v *HTTPVerifier) roundTrip(ctx context.Context) Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return transportFailure(fmt.Errorf("verifier: failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return transportFailure(fmt.Errorf("verifier: request failed: %w", err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	return Classify(resp.StatusCode)
}

// Classify maps an authority status code onto the three-way outcome.
func Classify(status int) Result {
	switch {
	case status >= 200 && status < 300:
		return confirmed(status)
	case status == http.StatusUnauthorized:
		return denied(Unauthorized)
	case status == http.StatusForbidden:
		return denied(Forbidden)
	default:
		return transportFailure(&StatusError{Status: status})
	}
}

// StatusError is a non-authoritative HTTP failure from the authority.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("verifier: authority returned %d %s", e.Status, http.StatusText(e.Status))
}
