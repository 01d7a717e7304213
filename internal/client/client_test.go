package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augbriz/desarrollo-FE-tp/internal/domain"
	apperrors "github.com/augbriz/desarrollo-FE-tp/pkg/errors"
	"github.com/augbriz/desarrollo-FE-tp/pkg/httpclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noRetryDoer() *httpclient.Client {
	return httpclient.New(httpclient.Config{
		Timeout:      2 * time.Second,
		ConnsPerHost: 4,
		Retry:        httpclient.NoRetry,
	})
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func TestReviewClient_ListAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/resenias/admin", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[
			{"id":1,"fecha":"2024-05-01T10:00:00Z","puntaje":5,"detalle":"great",
			 "usuario":{"id":2,"nombre":"Ana","nombreUsuario":"ana"},
			 "venta":{"id":3,"juego":{"id":4,"nombre":"Celeste"}}}
		]}`)
	}))
	defer srv.Close()

	c := NewReviewClient(noRetryDoer(), srv.URL+"/api/", testLogger())
	reviews, err := c.ListAll(context.Background(), "tok")

	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "Celeste", reviews[0].ProductName())
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestReviewClient_ListAll_Classification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		sentinel  error
		retryable bool
	}{
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrUnauthorized, false},
		{"forbidden", http.StatusForbidden, apperrors.ErrForbidden, false},
		{"server error", http.StatusInternalServerError, apperrors.ErrUpstream, true},
		{"not found", http.StatusNotFound, apperrors.ErrNotFound, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, `{"message":"nope"}`)
			}))
			defer srv.Close()

			_, err := NewReviewClient(noRetryDoer(), srv.URL, testLogger()).ListAll(context.Background(), "tok")

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.sentinel)
			assert.Equal(t, tc.retryable, apperrors.IsRetryable(err))
		})
	}
}

func TestReviewClient_ListAll_MissingEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":1}]`)
	}))
	defer srv.Close()

	_, err := NewReviewClient(noRetryDoer(), srv.URL, testLogger()).ListAll(context.Background(), "tok")
	assert.Error(t, err)
}

func TestReviewClient_Delete(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewReviewClient(noRetryDoer(), srv.URL, testLogger()).Delete(context.Background(), "tok", 7)

	require.NoError(t, err)
	assert.Equal(t, "/resenias/admin/7", gotPath)
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestCheckoutClient_StartSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout/start", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "juego", body["tipo"])
		assert.Equal(t, float64(12), body["id"])

		writeData(w, http.StatusCreated, map[string]string{"sessionId": "s-1", "status": "pending"})
	}))
	defer srv.Close()

	c := NewCheckoutClient(noRetryDoer(), srv.URL, testLogger())
	sess, err := c.StartSession(context.Background(), "tok", domain.ProductGame, 12)

	require.NoError(t, err)
	assert.Equal(t, "s-1", sess.SessionID)
	assert.Equal(t, domain.StatusPending, sess.Status)
}

func TestCheckoutClient_RequiresTokenWithoutNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeData(w, http.StatusOK, map[string]string{})
	}))
	defer srv.Close()

	c := NewCheckoutClient(noRetryDoer(), srv.URL, testLogger())
	ctx := context.Background()

	calls := map[string]func() error{
		"start":    func() error { _, err := c.StartSession(ctx, "", domain.ProductGame, 1); return err },
		"simulate": func() error { _, err := c.ConfirmSimulated(ctx, "", "s"); return err },
		"status":   func() error { _, err := c.PollStatus(ctx, "", "s"); return err },
		"mp start": func() error { _, err := c.StartProviderPreference(ctx, "", domain.ProductAddOn, 1); return err },
		"confirm":  func() error { _, err := c.ConfirmByPaymentID(ctx, "", "p"); return err },
		"sale":     func() error { _, err := c.FetchSaleByID(ctx, "", 1); return err },
	}
	for name, call := range calls {
		err := call()
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized, name)
	}
	assert.Zero(t, hits.Load())
}

func TestCheckoutClient_PollStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "s-9", r.URL.Query().Get("sessionId"))
		writeData(w, http.StatusOK, map[string]any{"status": "paid", "ventaId": 31})
	}))
	defer srv.Close()

	st, err := NewCheckoutClient(noRetryDoer(), srv.URL, testLogger()).PollStatus(context.Background(), "tok", "s-9")

	require.NoError(t, err)
	assert.True(t, st.IsTerminal())
	require.NotNil(t, st.SaleID)
	assert.Equal(t, 31, *st.SaleID)
}

func TestCheckoutClient_ResultIsAnonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "/checkout/mp/result", r.URL.Path)
		assert.Equal(t, "pay-1", r.URL.Query().Get("payment_id"))
		writeData(w, http.StatusOK, map[string]any{
			"status": "paid",
			"venta":  map[string]any{"id": 5, "codActivacion": "ABC-123", "fecha": "2026-10-17", "servicio": map[string]int{"id": 2}},
		})
	}))
	defer srv.Close()

	res, err := NewCheckoutClient(noRetryDoer(), srv.URL, testLogger()).ResultByPaymentID(context.Background(), "pay-1")

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, res.Status)
	require.NotNil(t, res.Sale)
	assert.Equal(t, "ABC-123", res.Sale.ActivationCode)
	typ, id, ok := res.Sale.Product()
	assert.True(t, ok)
	assert.Equal(t, domain.ProductService, typ)
	assert.Equal(t, 2, id)
}

func TestCheckoutClient_ConfirmAndSale(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout/simulate-success", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "s-1", body["sessionId"])
		writeData(w, http.StatusOK, map[string]any{"status": "paid", "venta": map[string]any{"id": 8}})
	})
	mux.HandleFunc("GET /checkout/mp/confirm", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pay-2", r.URL.Query().Get("payment_id"))
		writeData(w, http.StatusOK, map[string]any{"status": "paid", "venta": map[string]any{"id": 9}})
	})
	mux.HandleFunc("POST /checkout/mp/start", func(w http.ResponseWriter, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]string{"id": "pref-1", "init_point": "https://pay.example.com/x"})
	})
	mux.HandleFunc("GET /venta/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8", r.PathValue("id"))
		writeData(w, http.StatusOK, map[string]any{"id": 8, "codActivacion": "K-1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewCheckoutClient(noRetryDoer(), srv.URL, testLogger())
	ctx := context.Background()

	conf, err := c.ConfirmSimulated(ctx, "tok", "s-1")
	require.NoError(t, err)
	assert.Equal(t, 8, conf.Sale.ID)

	conf, err = c.ConfirmByPaymentID(ctx, "tok", "pay-2")
	require.NoError(t, err)
	assert.Equal(t, 9, conf.Sale.ID)

	pref, err := c.StartProviderPreference(ctx, "tok", domain.ProductGame, 1)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/x", pref.InitPoint)

	sale, err := c.FetchSaleByID(ctx, "tok", 8)
	require.NoError(t, err)
	assert.Equal(t, "K-1", sale.ActivationCode)
}
