package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/storefront/storefront/internal/platform/httpx"
	"github.com/storefront/storefront/internal/shared"
)

// Gate rejection reasons reported to the metrics recorder.
const (
	ReasonMissingHeader = "missing_header"
	ReasonMalformed     = "malformed"
	ReasonInvalidToken  = "invalid_token"
	ReasonRevoked       = "revoked"
)

// Recorder receives authentication outcome counters.
type Recorder interface {
	RecordLogin(result string)
	RecordGateRejection(reason string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string)         {}
func (nopRecorder) RecordGateRejection(string) {}

// Verifier turns a bearer credential into an identity.
type Verifier interface {
	Verify(token string) (shared.Identity, error)
}

// Gate authenticates bearer tokens on protected routes.
type Gate struct {
	verifier    Verifier
	revocations RevocationStore
	logger      *slog.Logger
	metrics     Recorder
}

// NewGate constructs a Gate. revocations and metrics may be nil.
func NewGate(verifier Verifier, revocations RevocationStore, logger *slog.Logger, metrics Recorder) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Gate{verifier: verifier, revocations: revocations, logger: logger, metrics: metrics}
}

// BearerToken extracts the credential from an Authorization header value: the
// second whitespace separated field.
func BearerToken(header string) (string, bool) {
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return "", false
	}
	return fields[1], true
}

// Identify verifies the request's bearer token without writing a response.
// The returned reason is empty on success.
func (g *Gate) Identify(ctx context.Context, header string) (shared.Identity, string, error) {
	if header == "" {
		return shared.Identity{}, ReasonMissingHeader, nil
	}
	token, ok := BearerToken(header)
	if !ok {
		return shared.Identity{}, ReasonMalformed, nil
	}
	identity, err := g.verifier.Verify(token)
	if err != nil {
		g.logger.Debug("token rejected", slog.Any("error", err))
		return shared.Identity{}, ReasonInvalidToken, nil
	}
	if g.revocations != nil {
		revoked, err := g.revocations.IsRevoked(ctx, identity.TokenID)
		if err != nil {
			return shared.Identity{}, "", err
		}
		if revoked {
			return shared.Identity{}, ReasonRevoked, nil
		}
	}
	return identity, "", nil
}

// Authenticate is middleware that admits only requests carrying a valid,
// unrevoked bearer token and stores the identity in the request context.
func (g *Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, reason, err := g.Identify(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			g.logger.Error("revocation lookup", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, httpx.MsgInternal)
			return
		}
		if reason != "" {
			g.metrics.RecordGateRejection(reason)
			httpx.Unauthorized(w, httpx.MsgUnauthenticated)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}
