package container

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"storefront/pixel/internal/config"
	"storefront/pixel/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var categories = map[string]string{
	"1":  `{"id":1,"name":"Root Catalog","is_active":true,"level":0,"path":"1"}`,
	"2":  `{"id":2,"name":"Default Category","is_active":true,"level":1,"path":"1/2"}`,
	"10": `{"id":10,"name":"Gear","is_active":true,"level":2,"path":"1/2/10"}`,
	"11": `{"id":11,"name":"Bags","is_active":true,"level":3,"path":"1/2/10/11"}`,
	"40": `{"id":40,"name":"Sale","is_active":false,"level":2,"path":"1/2/40"}`,
}

func newPlatform(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /V1/stores/{code}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"code":"default","root_category_id":2,"currency_code":"USD"}`)
	})
	mux.HandleFunc("GET /V1/categories/{id}", func(w http.ResponseWriter, r *http.Request) {
		body, ok := categories[r.PathValue("id")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("GET /V1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":%s,"sku":"24-MB01","name":"Joust Duffle Bag"}`, r.PathValue("id"))
	})
	mux.HandleFunc("GET /V1/products/{id}/categories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"category_ids":[40,10,11,99]}`)
	})
	mux.HandleFunc("GET /V1/products/{id}/final-price", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"final_price":34}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestNewWithRESTSource(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := &config.Config{
		Pixel: config.PixelConfig{Enabled: true},
		Platform: config.PlatformConfig{
			Source:    config.SourceREST,
			StoreCode: "default",
			BaseURL:   newPlatform(t).URL,
			Timeout:   5,
		},
		Redis: config.RedisConfig{
			Host:             mr.Host(),
			Port:             port,
			ConsumerGroup:    "test",
			MinIdleTime:      60,
			CategoryCacheTTL: 60,
		},
		Workers: config.WorkersConfig{Count: 1},
	}

	c, err := New(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()

	view, err := c.Service.BuildView(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, &domain.ProductView{
		ProductID:     1,
		SKU:           "24-MB01",
		CategoryNames: []string{"Gear", "Bags"},
		Currency:      "USD",
		Price:         "34.00",
	}, view)

	// Path lookups went through the category cache
	assert.True(t, mr.Exists("pixel:category:1:11"))
	assert.True(t, mr.Exists("pixel:category:1:2"))
}

func TestNewFailsWithoutRedis(t *testing.T) {
	cfg := &config.Config{
		Platform: config.PlatformConfig{Source: config.SourceREST, StoreCode: "default", BaseURL: "http://localhost"},
		Redis:    config.RedisConfig{Host: "127.0.0.1", Port: 1},
		Workers:  config.WorkersConfig{Count: 1},
	}

	_, err := New(context.Background(), cfg)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
