package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotReturnsCartLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/carrinho/u1", r.URL.Path)
		w.Write([]byte(`[{"produto_id":1,"quantidade":2},{"produto_id":2,"quantidade":1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	items, err := c.Snapshot(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, []Item{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, items)
}

func TestSnapshotNonSuccessIsCartFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"erro":"Erro ao buscar carrinho."}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Snapshot(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCartFetch)
}

func TestSnapshotTransportErrorIsCartFetchError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 50*time.Millisecond)
	_, err := c.Snapshot(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCartFetch)
}
