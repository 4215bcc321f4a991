// Package lazada is a minimal client for the Lazada Open Platform affiliate
// and auth endpoints.
package lazada

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/tuowzz/lazada-bot/internal/signing"
)

// API paths.
const (
	PathGetLink       = "/marketing/getlink"
	PathProductSearch = "/marketing/product/search"
	PathTokenRefresh  = "/auth/token/refresh"
)

// Default gateways.
const (
	DefaultAPIURL  = "https://api.lazada.co.th/rest"
	DefaultAuthURL = "https://auth.lazada.com/rest"
)

// Search orderings.
const (
	SortRelevance = "relevance"
	SortSales     = "sales"
)

// ErrUnexpectedStatus is wrapped when the gateway answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("lazada: unexpected HTTP status")

// Config holds what the client needs to talk to the gateway.
type Config struct {
	APIURL    string
	AuthURL   string
	AppKey    string
	AppSecret string
	// MarketingScheme canonicalizes getlink and product search calls.
	// Token refresh always uses signing.SchemePath.
	MarketingScheme signing.Scheme
	Timeout         time.Duration
	HTTPClient      *http.Client
}

// Client calls the Lazada Open Platform.
type Client struct {
	apiURL     string
	authURL    string
	appKey     string
	marketing  *signing.Signer
	auth       *signing.Signer
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. AppKey and AppSecret are required.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AppKey == "" {
		return nil, errors.New("lazada: app key is required")
	}
	marketing, err := signing.NewSigner(cfg.AppSecret, cfg.MarketingScheme)
	if err != nil {
		return nil, err
	}
	auth, err := signing.NewSigner(cfg.AppSecret, signing.SchemePath)
	if err != nil {
		return nil, err
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		authURL:    strings.TrimRight(cfg.AuthURL, "/"),
		appKey:     cfg.AppKey,
		marketing:  marketing,
		auth:       auth,
		httpClient: httpClient,
		now:        time.Now,
	}, nil
}

// Product is a resolved item with its tracking link.
type Product struct {
	ProductID string
	Name      string
	Link      string
}

// GetLink asks for an affiliate link for a single product id.
// It returns (nil, nil) when the gateway knows no such product.
func (c *Client) GetLink(ctx context.Context, accessToken, productID, subAffID, campaignID string) (*Product, error) {
	params := c.baseParams(accessToken)
	params.Set("inputType", "productId")
	params.Set("inputValue", productID)
	params.SetIfNotEmpty("subAffId", subAffID)
	params.SetIfNotEmpty("mmCampaignId", campaignID)

	var data struct {
		Links []linkInfo `json:"productBatchGetLinkInfoList"`
	}
	if err := c.call(ctx, http.MethodGet, c.apiURL, PathGetLink, c.marketing, params, &data); err != nil {
		return nil, err
	}

	for _, l := range data.Links {
		if link := l.bestLink(campaignID); link != "" {
			return &Product{ProductID: l.ProductID.String(), Name: l.ProductName, Link: link}, nil
		}
	}
	return nil, nil
}

// SearchProducts searches the affiliate feed by keyword. Results carry
// tracking links already bound to subAffID.
func (c *Client) SearchProducts(ctx context.Context, accessToken, keyword, sortBy, subAffID, campaignID string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 1
	}
	params := c.baseParams(accessToken)
	params.Set("keyword", keyword)
	params.Set("sortBy", sortBy)
	params.Set("page", "1")
	params.Set("pageSize", strconv.Itoa(limit))
	params.SetIfNotEmpty("subAffId", subAffID)
	params.SetIfNotEmpty("mmCampaignId", campaignID)

	var data struct {
		Products []linkInfo `json:"products"`
	}
	if err := c.call(ctx, http.MethodGet, c.apiURL, PathProductSearch, c.marketing, params, &data); err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(data.Products))
	for _, p := range data.Products {
		link := p.bestLink(campaignID)
		if link == "" {
			continue
		}
		products = append(products, Product{ProductID: p.ProductID.String(), Name: p.ProductName, Link: link})
	}
	return products, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	params := signing.NewParams(
		"app_key", c.appKey,
		"timestamp", c.timestamp(),
		"sign_method", "sha256",
		"refresh_token", refreshToken,
	)

	var resp refreshResponse
	if err := c.call(ctx, http.MethodPost, c.authURL, PathTokenRefresh, c.auth, params, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, &APIError{Code: "EmptyAccessToken", Message: "refresh response carried no access token"}
	}

	tok := &oauth2.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    "Bearer",
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}
	if resp.ExpiresIn > 0 {
		tok.Expiry = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}
	return tok, nil
}

func (c *Client) baseParams(accessToken string) *signing.Params {
	params := signing.NewParams(
		"app_key", c.appKey,
		"timestamp", c.timestamp(),
		"sign_method", "sha256",
	)
	params.SetIfNotEmpty("access_token", accessToken)
	return params
}

func (c *Client) timestamp() string {
	return strconv.FormatInt(c.now().UnixMilli(), 10)
}

// call signs params, sends the request and decodes the envelope. When out
// is non-nil the envelope's data object (or the whole body for auth calls)
// is decoded into it.
func (c *Client) call(ctx context.Context, method, baseURL, apiPath string, signer *signing.Signer, params *signing.Params, out any) error {
	signer.SignInto(apiPath, params)
	endpoint := baseURL + apiPath

	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+params.Values().Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(params.Values().Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
		}
	}
	if err != nil {
		return fmt.Errorf("lazada: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("lazada: %s %s: %w", method, apiPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("lazada: read body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}
		return fmt.Errorf("lazada: decode response: %w", err)
	}
	if apiErr := env.err(); apiErr != nil {
		return apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	raw := json.RawMessage(body)
	if apiPath != PathTokenRefresh {
		raw = env.payload()
		if len(raw) == 0 {
			return nil
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("lazada: decode %s payload: %w", apiPath, err)
	}
	return nil
}
