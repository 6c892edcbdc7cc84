package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	service "github.com/mamadbah2/stockledger/internal/service/whatsapp"
	client "github.com/mamadbah2/stockledger/pkg/clients/whatsapp"
)

const businessAccountObject = "whatsapp_business_account"

// WebhookHandler exposes the WhatsApp command channel and manual sends.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the HTTP handler adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify answers the subscription challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.logger.Warn("webhook verification rejected", zap.String("client_ip", c.ClientIP()), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive runs the commands carried by a webhook callback. Once the body
// parses the callback is always acknowledged: a non-2xx makes Meta redeliver,
// which would replay sells and entries that already committed.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		badRequest(c, "invalid payload")
		return
	}
	if payload.Object != businessAccountObject {
		h.logger.Debug("ignoring webhook object", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook processing failed", zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator message, for example a stock count, to a
// WhatsApp recipient.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "to and message are required")
		return
	}
	req.To = strings.TrimSpace(req.To)
	if req.To == "" || strings.TrimSpace(req.Message) == "" {
		badRequest(c, "to and message are required")
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound message failed", zap.String("to", req.To), zap.Error(err))
		body := gin.H{"error": "unable to send message"}
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			body["code"] = apiErr.Code
		}
		c.JSON(http.StatusBadGateway, body)
		return
	}

	c.Status(http.StatusAccepted)
}
