package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-tireshop-service/internal/handlers"
)

const shopID = "0b8e2a53-6f0e-4d5b-a1c9-7c3d2e4f5a61"

func newTestServer() *Server {
	cfg := &config.Config{Server: config.ServerConfig{Port: 0, Mode: gin.TestMode}}
	return New(handlers.NewHandlers(handlers.Services{}, nil, nil), cfg)
}

func TestRoutes(t *testing.T) {
	srv := newTestServer()

	tests := []struct {
		name       string
		method     string
		path       string
		shop       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"live", http.MethodGet, "/live", "", http.StatusOK},
		{"ready without checks", http.MethodGet, "/ready", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"api needs shop", http.MethodGet, "/api/v1/orders", "", http.StatusBadRequest},
		{"order id must be uuid", http.MethodGet, "/api/v1/orders/42", shopID, http.StatusNotFound},
		{"draft tire id must be uuid", http.MethodDelete, "/api/v1/drafts/" + shopID + "/tires/abc", shopID, http.StatusNotFound},
		{"stream without hub", http.MethodGet, "/api/v1/tasks/stream", shopID, http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/api/v2/orders", shopID, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.shop != "" {
				req.Header.Set(handlers.ShopIDHeader, tt.shop)
			}
			w := httptest.NewRecorder()
			srv.Handler().ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(handlers.RequestIDHeader))
		})
	}
}
