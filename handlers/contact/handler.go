package contact

import (
	"context"
	"net/http"
	"strings"

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

func (h *handler) Name() string { return "Contact" }

// Initialize implements foyer.Handler
func (h *handler) Initialize(s foyer.Server) error {
	h.server = s
	s.AddHandlerRoute(h, http.MethodPost, "/api/contact", h.contact)
	return nil
}

type contactPayload struct {
	Name    string `json:"name"    name:"name"`
	Email   string `json:"email"   name:"email"`
	Message string `json:"message" name:"message"`
}

// contact is our handler for contact messages. Every accepted submission creates a new record,
// identical submissions included, so retrying a failed request can create duplicates.
func (h *handler) contact(ctx context.Context, r *http.Request) (*foyer.Response, error) {
	payload := &contactPayload{}
	if err := handlers.DecodeAndValidate(payload, r); err != nil {
		return foyer.NewErrorResponse(http.StatusBadRequest, "unable to parse request body"), nil
	}

	message := strings.TrimSpace(payload.Message)
	if message == "" {
		return foyer.NewErrorResponse(http.StatusBadRequest, "message required"), nil
	}

	name := strings.TrimSpace(payload.Name)
	email := strings.ToLower(strings.TrimSpace(payload.Email))

	msg := models.NewContactMessage(h.server.Config().Tenant, name, email, message)
	if err := h.server.Store().PutRecord(ctx, msg); err != nil {
		return nil, err
	}

	return foyer.NewOKResponse(), nil
}
