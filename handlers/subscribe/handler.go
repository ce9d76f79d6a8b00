package subscribe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hearthside/foyer"
	"github.com/hearthside/foyer/core/models"
	"github.com/hearthside/foyer/handlers"
)

func init() {
	foyer.RegisterHandler(newHandler())
}

type handler struct {
	server foyer.Server
}

func newHandler() foyer.Handler {
	return &handler{}
}

func (h *handler) Name() string { return "Subscribe" }

// Initialize implements foyer.Handler
func (h *handler) Initialize(s foyer.Server) error {
	h.server = s
	s.AddHandlerRoute(h, http.MethodPost, "/api/subscribe", h.subscribe)
	return nil
}

type subscribePayload struct {
	Email string `json:"email" name:"email"`
}

// subscribe is our handler for new subscriptions. Subscribing the same email twice overwrites the
// existing record, so retries are safe.
func (h *handler) subscribe(ctx context.Context, r *http.Request) (*foyer.Response, error) {
	payload := &subscribePayload{}
	if err := handlers.DecodeAndValidate(payload, r); err != nil {
		return foyer.NewErrorResponse(http.StatusBadRequest, "unable to parse request body"), nil
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || !strings.Contains(email, "@") {
		return foyer.NewErrorResponse(http.StatusBadRequest, "invalid email"), nil
	}

	// callers can pass their own idempotency token, otherwise we derive one
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		idemKey = fallbackIdempotencyKey(email, time.Now())
	}

	sub := models.NewSubscription(h.server.Config().Tenant, email, idemKey)
	if err := h.server.Store().PutRecord(ctx, sub); err != nil {
		return nil, err
	}

	return foyer.NewOKResponse(), nil
}

// fallbackIdempotencyKey derives a key from the email and the current time rounded down to the
// minute, so retries within the same minute carry the same token. This is a trace token only,
// repeat subscribes are already collapsed by the record key being email derived.
func fallbackIdempotencyKey(email string, now time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d", email, now.Unix()/60)))
	return hex.EncodeToString(sum[:])
}
