package client

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"storefront/pixel/internal/config"
	"storefront/pixel/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PlatformClient reads catalog data from the platform REST API. It implements
// the store, category and product collaborators of the pixel helper.
type PlatformClient interface {
	CurrentStore(ctx context.Context) (*domain.Store, error)
	GetCategory(ctx context.Context, id domain.CategoryID, storeID domain.StoreID) (*domain.Category, error)
	GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error)
	CategoryIDs(ctx context.Context, product *domain.Product) ([]domain.CategoryID, error)
	FinalPrice(ctx context.Context, product *domain.Product) (decimal.Decimal, error)
}

type platformClient struct {
	rl         ratelimit.Limiter
	storeCode  string
	httpClient *resty.Client

	// Circuit breaker for 429 responses
	circuitBreakerMutex sync.RWMutex
	throttledUntil      time.Time
	circuitBreakerDelay time.Duration
}

func NewPlatformClient(cfg config.PlatformConfig) PlatformClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &platformClient{
		rl:                  rl,
		storeCode:           cfg.StoreCode,
		httpClient:          client,
		circuitBreakerDelay: time.Minute,
	}
}

type storeResponse struct {
	ID             int64  `json:"id"`
	Code           string `json:"code"`
	RootCategoryID int64  `json:"root_category_id"`
	CurrencyCode   string `json:"currency_code"`
}

func (c *platformClient) CurrentStore(ctx context.Context) (*domain.Store, error) {
	var body storeResponse
	err := c.getJSON(ctx, c.httpClient.R().SetPathParam("code", c.storeCode), "/V1/stores/{code}", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to get store %q: %w", c.storeCode, notFoundAs(err, domain.ErrStoreNotFound))
	}

	return &domain.Store{
		ID:                  domain.StoreID(body.ID),
		Code:                body.Code,
		RootCategoryID:      domain.CategoryID(body.RootCategoryID),
		CurrentCurrencyCode: body.CurrencyCode,
	}, nil
}

type categoryResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	Level    int    `json:"level"`
	Path     string `json:"path"`
}

func (c *platformClient) GetCategory(ctx context.Context, id domain.CategoryID, storeID domain.StoreID) (*domain.Category, error) {
	req := c.httpClient.R().
		SetPathParam("id", strconv.FormatInt(int64(id), 10)).
		SetQueryParam("storeId", strconv.FormatInt(int64(storeID), 10))

	var body categoryResponse
	if err := c.getJSON(ctx, req, "/V1/categories/{id}", &body); err != nil {
		return nil, fmt.Errorf("failed to get category %d: %w", id, notFoundAs(err, domain.ErrCategoryNotFound))
	}

	pathIDs, err := domain.ParsePath(body.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse path of category %d: %w", id, err)
	}

	return &domain.Category{
		ID:       domain.CategoryID(body.ID),
		Name:     body.Name,
		IsActive: body.IsActive,
		Level:    body.Level,
		PathIDs:  pathIDs,
	}, nil
}

type productResponse struct {
	ID   int64  `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
}

func (c *platformClient) GetProduct(ctx context.Context, id domain.ProductID) (*domain.Product, error) {
	var body productResponse
	err := c.getJSON(ctx, c.productRequest(id), "/V1/products/{id}", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, notFoundAs(err, domain.ErrProductNotFound))
	}

	return &domain.Product{ID: domain.ProductID(body.ID), SKU: body.SKU, Name: body.Name}, nil
}

type productCategoriesResponse struct {
	CategoryIDs []int64 `json:"category_ids"`
}

func (c *platformClient) CategoryIDs(ctx context.Context, product *domain.Product) ([]domain.CategoryID, error) {
	var body productCategoriesResponse
	err := c.getJSON(ctx, c.productRequest(product.ID), "/V1/products/{id}/categories", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories of product %d: %w", product.ID, notFoundAs(err, domain.ErrProductNotFound))
	}

	ids := make([]domain.CategoryID, 0, len(body.CategoryIDs))
	for _, id := range body.CategoryIDs {
		ids = append(ids, domain.CategoryID(id))
	}
	return ids, nil
}

type finalPriceResponse struct {
	FinalPrice decimal.Decimal `json:"final_price"`
}

func (c *platformClient) FinalPrice(ctx context.Context, product *domain.Product) (decimal.Decimal, error) {
	req := c.productRequest(product.ID).SetQueryParam("storeCode", c.storeCode)

	var body finalPriceResponse
	if err := c.getJSON(ctx, req, "/V1/products/{id}/final-price", &body); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get final price of product %d: %w", product.ID, notFoundAs(err, domain.ErrPriceNotFound))
	}

	return body.FinalPrice, nil
}

func (c *platformClient) productRequest(id domain.ProductID) *resty.Request {
	return c.httpClient.R().SetPathParam("id", strconv.FormatInt(int64(id), 10))
}
