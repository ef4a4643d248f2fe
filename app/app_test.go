package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppServesRoutes(t *testing.T) {
	ctx := context.Background()
	a, err := NewApp(ctx, Options{LibDir: t.TempDir(), Port: 0})
	require.NoError(t, err)
	defer a.shutdownHandlers.Execute(ctx, a)

	data := []struct {
		URL    string
		Status int
	}{
		{"/markers", http.StatusOK},
		{"/favorites", http.StatusOK},
		{"/cache/stats", http.StatusOK},
		{"/map.svg", http.StatusOK},
		{"/markers/unknown", http.StatusNotFound},
	}
	for _, d := range data {
		res := httptest.NewRecorder()
		a.router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, d.URL, nil))
		assert.Equal(t, d.Status, res.Code, d.URL)
	}
}

func TestShutdownHandlersRunInReverse(t *testing.T) {
	var order []int
	var h shutdownHandlers
	h.Add(func(context.Context, *App) { order = append(order, 1) })
	h.Add(func(context.Context, *App) { order = append(order, 2) })
	h.Execute(context.Background(), nil)
	assert.Equal(t, []int{2, 1}, order)
}
