package verify

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"payhook/internal/model"
)

var (
	ErrMissingSignature = errors.New("signature header is required")
	ErrMalformedHeader  = errors.New("malformed signature header")
	ErrInvalidSignature = errors.New("signature mismatch")
	ErrStaleTimestamp   = errors.New("signature timestamp outside tolerance")
	ErrNoSecret         = errors.New("webhook secret not configured")
)

// Mode is fixed at startup. Strict rejects every delivery when no secret is
// configured; PermissiveTest skips authentication entirely and must never be
// selected implicitly.
type Mode string

const (
	ModeStrict         Mode = "strict"
	ModePermissiveTest Mode = "permissive-test"
)

const DefaultTolerance = 5 * time.Minute

type Options struct {
	Secret    string
	Mode      Mode
	Tolerance time.Duration

	// Now overrides the clock; tests only.
	Now func() time.Time
}

// Verifier authenticates raw webhook payloads. It operates on the exact
// bytes received: any re-serialization before Verify invalidates the
// signature.
type Verifier struct {
	secret    string
	mode      Mode
	tolerance time.Duration
	now       func() time.Time
	logger    logr.Logger
}

func New(opts Options, logger logr.Logger) *Verifier {
	if opts.Mode == "" {
		opts.Mode = ModeStrict
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Verifier{
		secret:    opts.Secret,
		mode:      opts.Mode,
		tolerance: opts.Tolerance,
		now:       opts.Now,
		logger:    logger,
	}
}

func (v *Verifier) Mode() Mode { return v.mode }

// Verify authenticates rawBody against the signature header and returns the
// parsed event. In permissive-test mode the body is parsed without
// authentication and a warning is logged per delivery.
func (v *Verifier) Verify(rawBody []byte, header string) (model.Event, error) {
	if v.secret == "" {
		if v.mode == ModePermissiveTest {
			v.logger.Info("WARNING: accepting unauthenticated webhook delivery, permissive-test mode is active")
			return model.ParseEvent(rawBody)
		}
		return model.Event{}, ErrNoSecret
	}

	parsed, err := parseSignatureHeader(header)
	if err != nil {
		return model.Event{}, err
	}
	if err := v.checkFreshness(parsed.timestamp); err != nil {
		return model.Event{}, err
	}
	expected := computeSignature(parsed.timestamp, rawBody, v.secret)
	if !anySignatureMatches(parsed.signatures, expected) {
		return model.Event{}, ErrInvalidSignature
	}
	return model.ParseEvent(rawBody)
}

func (v *Verifier) checkFreshness(ts time.Time) error {
	drift := v.now().Sub(ts)
	if drift < 0 {
		drift = -drift
	}
	if drift > v.tolerance {
		return fmt.Errorf("%w: signed %s ago, tolerance %s", ErrStaleTimestamp, v.now().Sub(ts).Round(time.Second), v.tolerance)
	}
	return nil
}

func anySignatureMatches(candidates [][]byte, expected []byte) bool {
	for _, c := range candidates {
		if hmac.Equal(c, expected) {
			return true
		}
	}
	return false
}
