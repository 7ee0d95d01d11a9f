package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/conversation"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/internal/tenancy"
	"github.com/abinalyas/Whatsapp-bot-for-consumer-sub006/pkg/logging"
)

// WhatsAppWebhookHandler receives inbound WhatsApp messages and runs them
// through the booking conversation engine.
type WhatsAppWebhookHandler struct {
	engine *conversation.Engine
	logger *logging.Logger
}

// NewWhatsAppWebhookHandler creates the inbound message handler.
func NewWhatsAppWebhookHandler(engine *conversation.Engine, logger *logging.Logger) *WhatsAppWebhookHandler {
	if engine == nil {
		panic("handlers: conversation engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{engine: engine, logger: logger}
}

type inboundMessage struct {
	TenantID string `json:"tenant_id"`
	From     string `json:"from"`
	Text     string `json:"text"`
}

type outboundReply struct {
	Reply string `json:"reply"`
	State string `json:"state"`
}

// HandleMessage processes one inbound message and returns the reply to send.
func (h *WhatsAppWebhookHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		h.logger.Warn("invalid webhook payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	msg.TenantID = strings.TrimSpace(msg.TenantID)
	msg.From = strings.TrimSpace(msg.From)
	if msg.TenantID == "" || msg.From == "" {
		writeError(w, http.StatusBadRequest, "tenant_id and from are required")
		return
	}

	ctx := tenancy.WithTenantID(r.Context(), msg.TenantID)
	reply := h.engine.HandleMessage(ctx, msg.TenantID, msg.From, msg.Text)

	writeJSON(w, http.StatusOK, outboundReply{Reply: reply.Text, State: string(reply.Step)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
