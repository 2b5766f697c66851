package verify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The platform signs the exact bytes it sends: the signed payload is
// "<unix timestamp>.<raw body>" and each v1 entry is a lowercase hex
// HMAC-SHA256 of that string. Several v1 entries may be present while a
// secret rotation is in flight; any one match accepts.
const signedPayloadScheme = "v1"

type signatureHeader struct {
	timestamp  time.Time
	signatures [][]byte
}

func parseSignatureHeader(value string) (signatureHeader, error) {
	var out signatureHeader
	value = strings.TrimSpace(value)
	if value == "" {
		return out, ErrMissingSignature
	}
	sawTimestamp := false
	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return out, fmt.Errorf("%w: element %q", ErrMalformedHeader, pair)
		}
		switch parts[0] {
		case "t":
			unix, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return out, fmt.Errorf("%w: bad timestamp %q", ErrMalformedHeader, parts[1])
			}
			out.timestamp = time.Unix(unix, 0)
			sawTimestamp = true
		case signedPayloadScheme:
			sig, err := hex.DecodeString(strings.TrimSpace(parts[1]))
			if err != nil {
				return out, fmt.Errorf("%w: bad hex signature", ErrMalformedHeader)
			}
			out.signatures = append(out.signatures, sig)
		default:
			// Unknown schemes (v0, future versions) are ignored.
		}
	}
	if !sawTimestamp {
		return out, fmt.Errorf("%w: no timestamp element", ErrMalformedHeader)
	}
	if len(out.signatures) == 0 {
		return out, fmt.Errorf("%w: no %s element", ErrMalformedHeader, signedPayloadScheme)
	}
	return out, nil
}

func computeSignature(ts time.Time, body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// Sign produces a signature header value the platform would attach to body
// at time ts. Used by the demo sender and by tests.
func Sign(secret string, ts time.Time, body []byte) string {
	sig := computeSignature(ts, body, secret)
	return fmt.Sprintf("t=%d,%s=%s", ts.Unix(), signedPayloadScheme, hex.EncodeToString(sig))
}
