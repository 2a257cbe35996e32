package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lastmile-backend/internal/model"
)

func newSubscriptionRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.PUT("/api/subscriptions", h.PutSubscription)
	r.DELETE("/api/subscriptions", h.DeleteSubscription)
	r.GET("/api/vapid_public_key", h.GetVAPIDPublicKey)
	return r
}

func TestPutSubscription(t *testing.T) {
	var saved model.PushSubscription
	st := &mockStore{
		SaveSubscriptionFunc: func(_ context.Context, sub model.PushSubscription) error {
			saved = sub
			return nil
		},
	}
	r := newSubscriptionRouter(NewHandler(st, nil, nil, nil, nil))

	w := doJSON(t, r, "PUT", "/api/subscriptions", "@Alice", gin.H{
		"endpoint": "https://push.example/ep1",
		"p256dh":   "key",
		"auth":     "secret",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "alice", saved.Username)
	assert.Equal(t, "https://push.example/ep1", saved.Endpoint)
}

func TestPutSubscription_InvalidBody(t *testing.T) {
	r := newSubscriptionRouter(NewHandler(&mockStore{}, nil, nil, nil, nil))
	w := doJSON(t, r, "PUT", "/api/subscriptions", "alice", gin.H{"endpoint": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestDeleteSubscription(t *testing.T) {
	var deleted string
	st := &mockStore{
		DeleteSubFunc: func(_ context.Context, endpoint string) error {
			deleted = endpoint
			return nil
		},
	}
	r := newSubscriptionRouter(NewHandler(st, nil, nil, nil, nil))

	w := doJSON(t, r, "DELETE", "/api/subscriptions", "alice", gin.H{
		"endpoint": "https://push.example/ep1",
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://push.example/ep1", deleted)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	r := newSubscriptionRouter(NewHandler(&mockStore{}, nil, nil, nil, &webpush.Options{
		VAPIDPublicKey: "pub-key",
	}))
	w := doJSON(t, r, "GET", "/api/vapid_public_key", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"public_key":"pub-key"}`, w.Body.String())
}

func TestGetVAPIDPublicKey_Unconfigured(t *testing.T) {
	r := newSubscriptionRouter(NewHandler(&mockStore{}, nil, nil, nil, nil))
	w := doJSON(t, r, "GET", "/api/vapid_public_key", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
