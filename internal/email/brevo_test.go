package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOTP(t *testing.T) {
	var gotAPIKey string
	var gotPayload sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"messageId": "msg-123"})
	}))
	defer server.Close()

	sender := NewSenderWithURL(Config{
		APIKey:           "key-abc",
		FromName:         "SimpleBIM",
		FromAddress:      "noreply@example.com",
		OTPExpireMinutes: 10,
	}, server.URL)

	err := sender.SendOTP(context.Background(), "user@example.com", "123456")
	require.NoError(t, err)

	assert.Equal(t, "key-abc", gotAPIKey)
	assert.Equal(t, "noreply@example.com", gotPayload.Sender.Email)
	require.Len(t, gotPayload.To, 1)
	assert.Equal(t, "user@example.com", gotPayload.To[0].Email)
	assert.Contains(t, gotPayload.HTMLContent, "123456")
	assert.Contains(t, gotPayload.TextContent, "123456")
	assert.Contains(t, gotPayload.TextContent, "10 minutes")
}

func TestSendOTPAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid key"})
	}))
	defer server.Close()

	sender := NewSenderWithURL(Config{APIKey: "bad-key"}, server.URL)

	err := sender.SendOTP(context.Background(), "user@example.com", "123456")
	assert.ErrorContains(t, err, "401")
}

func TestSendOTPDevMode(t *testing.T) {
	// No API key: the code is logged instead of sent, and delivery succeeds
	sender := NewSender(Config{})

	err := sender.SendOTP(context.Background(), "user@example.com", "123456")
	assert.NoError(t, err)
}
