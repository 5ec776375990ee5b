package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"apcc-pipeline/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.GatewayConfig {
	return config.GatewayConfig{
		BaseURL:      baseURL,
		KeyID:        "key_test",
		KeySecret:    "secret_test",
		CheckoutPath: "/v1/checkout.js",
		Currency:     "INR",
		Timeout:      5000,
	}
}

func TestEnsureCheckout(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodHead, r.Method)
			assert.Equal(t, "/v1/checkout.js", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		err := client.EnsureCheckout(context.Background())
		assert.NoError(t, err)
	})

	t.Run("unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		err := client.EnsureCheckout(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unavailable")
	})
}

func TestCreateOrder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/orders", r.URL.Path)

			user, pass, ok := r.BasicAuth()
			require.True(t, ok)
			assert.Equal(t, "key_test", user)
			assert.Equal(t, "secret_test", pass)

			var body createOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(23600), body.Amount)
			assert.Equal(t, "INR", body.Currency)
			assert.NotEmpty(t, body.Receipt)

			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":       "order_test123",
				"amount":   body.Amount,
				"currency": body.Currency,
			})
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		order, err := client.CreateOrder(context.Background(), 23600)
		require.NoError(t, err)
		assert.Equal(t, "order_test123", order.ID)
		assert.Equal(t, int64(23600), order.Amount)
		assert.Equal(t, "INR", order.Currency)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"error":"upstream down"}`))
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		order, err := client.CreateOrder(context.Background(), 23600)
		assert.Error(t, err)
		assert.Nil(t, order)
		assert.Contains(t, err.Error(), "status 502")
	})

	t.Run("missing order id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"amount": 23600, "currency": "INR"})
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		order, err := client.CreateOrder(context.Background(), 23600)
		assert.Error(t, err)
		assert.Nil(t, order)
		assert.Contains(t, err.Error(), "missing id")
	})
}

func TestVerifyPayment(t *testing.T) {
	callback := []byte(`{"order_id":"order_abc","payment_id":"pay_xyz","signature":"sig123"}`)

	t.Run("payload forwarded verbatim", func(t *testing.T) {
		var received []byte
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/verify-payment", r.URL.Path)
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			received = buf
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		ok, err := client.VerifyPayment(context.Background(), callback)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, callback, received)
	})

	t.Run("verification rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]bool{"success": false})
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		ok, err := client.VerifyPayment(context.Background(), callback)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("verify endpoint failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(testConfig(server.URL))
		ok, err := client.VerifyPayment(context.Background(), callback)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
