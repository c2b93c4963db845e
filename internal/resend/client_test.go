package resend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSuccess(t *testing.T) {
	var gotAuth, gotContentType string
	var gotPayload map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": "re_abc123"})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second)
	id, err := client.Send(context.Background(),
		"BioMath Core <noreply@biomathcore.com>", "anna@example.com", "Hello", "<p>Hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "re_abc123", id)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "BioMath Core <noreply@biomathcore.com>", gotPayload["from"])
	assert.Equal(t, []interface{}{"anna@example.com"}, gotPayload["to"])
	assert.Equal(t, "Hello", gotPayload["subject"])
	assert.Equal(t, "<p>Hi</p>", gotPayload["html"])
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "The from address is not authorized",
			"name":    "validation_error",
		})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second)
	_, err := client.Send(context.Background(), "bad@example.com", "anna@example.com", "Hello", "<p>Hi</p>")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "The from address is not authorized", apiErr.Message)
}

func TestSendAPIErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, time.Second)
	_, err := client.Send(context.Background(), "a@example.com", "b@example.com", "s", "h")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestSendNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient("test-key", server.URL, time.Second)
	_, err := client.Send(context.Background(), "a@example.com", "b@example.com", "s", "h")
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("key", "", 0)
	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}
