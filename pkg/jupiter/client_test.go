package jupiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMint = "So11111111111111111111111111111111111111112"

func TestGetPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/price", r.URL.Path)
		assert.Equal(t, testMint, r.URL.Query().Get("ids"))

		w.Write([]byte(`{"data":{"` + testMint + `":{"id":"` + testMint + `","price":"2.500000"}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")

	price, err := client.GetPrice(context.Background(), testMint)
	require.NoError(t, err)
	assert.Equal(t, "2.5", price.String())
}

func TestGetPrice_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")

	_, err := client.GetPrice(context.Background(), testMint)
	assert.Equal(t, ErrPriceNotFound, err)
}

func TestGetPrice_HttpError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL + "/")

	_, err := client.GetPrice(context.Background(), testMint)
	assert.Error(t, err)
}
