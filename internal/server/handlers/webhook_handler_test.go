package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	client "github.com/mamadbah2/stockledger/pkg/clients/whatsapp"
)

type stubMessaging struct {
	handleErr error
	sendErr   error
	handled   int
}

func (s *stubMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if token != "tok" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (s *stubMessaging) HandleWebhook(context.Context, models.WebhookPayload) error {
	s.handled++
	return s.handleErr
}

func (s *stubMessaging) SendOutbound(context.Context, models.OutboundMessageRequest) error {
	return s.sendErr
}

func webhookEngine(svc *stubMessaging) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookVerify(t *testing.T) {
	r := webhookEngine(&stubMessaging{})

	rec := serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=tok&hub.challenge=99", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "99", rec.Body.String())

	rec = serve(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=bad&hub.challenge=99", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWebhookReceive_AcknowledgesFailures(t *testing.T) {
	svc := &stubMessaging{handleErr: errors.New("send failed")}
	r := webhookEngine(svc)

	rec := serve(r, http.MethodPost, "/webhook", `{"object":"whatsapp_business_account","entry":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.handled)

	rec = serve(r, http.MethodPost, "/webhook", `{"object":"page","entry":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.handled)

	rec = serve(r, http.MethodPost, "/webhook", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage(t *testing.T) {
	r := webhookEngine(&stubMessaging{})
	assert.Equal(t, http.StatusAccepted, serve(r, http.MethodPost, "/send-message", `{"to":"1","message":"hi"}`).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/send-message", `{"to":"1"}`).Code)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/send-message", `{"to":"  ","message":"hi"}`).Code)

	failing := webhookEngine(&stubMessaging{sendErr: errors.New("down")})
	assert.Equal(t, http.StatusBadGateway, serve(failing, http.MethodPost, "/send-message", `{"to":"1","message":"hi"}`).Code)

	rejected := webhookEngine(&stubMessaging{sendErr: &client.APIError{Status: 400, Code: 131030, Message: "recipient not allowed"}})
	rec := serve(rejected, http.MethodPost, "/send-message", `{"to":"1","message":"hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":131030`)
}
