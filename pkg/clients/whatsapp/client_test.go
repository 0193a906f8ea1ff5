package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OlmanCE/agro-track-sub000/internal/config"
)

func TestSendText(t *testing.T) {
	t.Parallel()

	var got textPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{AccessToken: "secret", PhoneNumberID: "12345", BaseURL: srv.URL + "/", APIVersion: "v20.0"})
	id, err := c.SendText(context.Background(), "50688887777", "resumen semanal")
	require.NoError(t, err)

	assert.Equal(t, "wamid.1", id)
	assert.Equal(t, "whatsapp", got.MessagingProduct)
	assert.Equal(t, "50688887777", got.To)
	assert.Equal(t, "resumen semanal", got.Text.Body)
}

func TestSendTextAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","code":190,"fbtrace_id":"abc"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.WhatsAppConfig{AccessToken: "bad", PhoneNumberID: "12345", BaseURL: srv.URL, APIVersion: "v20.0"})
	_, err := c.SendText(context.Background(), "50688887777", "hola")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, "Invalid OAuth access token", apiErr.Message)
}

func TestSendTextRequiresRecipient(t *testing.T) {
	t.Parallel()

	c := NewClient(config.WhatsAppConfig{BaseURL: "http://localhost", APIVersion: "v20.0"})
	_, err := c.SendText(context.Background(), "", "hola")
	assert.Error(t, err)
}
