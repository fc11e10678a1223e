package mapping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/procurehub/backend/internal/domain/reconciliation/acl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapperClientMapLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/map-line", r.URL.Path)

		var req acl.MapLineRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "INV-2001", req.InvoiceID)
		assert.Equal(t, "Flour 20kg", req.Description)

		json.NewEncoder(w).Encode(acl.MapLineResult{
			FinanceCode: "BAKE",
			Confidence:  0.92,
			Strategy:    "exact_item",
			AuditID:     "audit-1",
		})
	}))
	defer server.Close()

	client := NewMapperClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	result, err := client.MapLine(context.Background(), acl.MapLineRequest{
		InvoiceID:   "INV-2001",
		LineID:      "INV-2001-1",
		Description: "Flour 20kg",
		Actor:       "importer",
	})

	require.NoError(t, err)
	assert.Equal(t, "BAKE", result.FinanceCode)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestMapperClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mapping model unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewMapperClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	_, err := client.MapLine(context.Background(), acl.MapLineRequest{InvoiceID: "INV-1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestCatalogClientLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/items/100042", r.URL.Path)
		json.NewEncoder(w).Encode(acl.CatalogItem{
			ItemNumber: "100042",
			TaxableGST: true,
			TaxableQST: false,
			Status:     acl.CatalogItemStatusActive,
		})
	}))
	defer server.Close()

	client := NewCatalogClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	item, err := client.Lookup(context.Background(), "100042")

	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.TaxableGST)
	assert.False(t, item.TaxableQST)
	assert.True(t, item.IsActive())
}

func TestCatalogClientLookupMissIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewCatalogClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	item, err := client.Lookup(context.Background(), "999999")

	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCatalogClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewCatalogClient(ClientConfig{BaseURL: server.URL, Timeout: 2 * time.Second})
	_, err := client.Lookup(context.Background(), "100042")

	assert.Error(t, err)
}
