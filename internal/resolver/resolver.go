// Package resolver turns a chat keyword into a purchasable URL. It always
// answers: remote failures walk a fallback chain that ends in a locally built
// catalog search URL.
package resolver

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/tuowzz/lazada-bot/internal/lazada"
	"github.com/tuowzz/lazada-bot/internal/metrics"
	"github.com/tuowzz/lazada-bot/internal/models"
	"github.com/tuowzz/lazada-bot/internal/token"
	"github.com/tuowzz/lazada-bot/internal/validation"
)

// DefaultCatalogURL is the degraded search page. {keyword} is replaced by the
// query-escaped keyword.
const DefaultCatalogURL = "https://www.lazada.co.th/catalog/?q={keyword}"

// API is the remote commerce API.
type API interface {
	GetLink(ctx context.Context, accessToken, productID, subAffID, campaignID string) (*lazada.Product, error)
	SearchProducts(ctx context.Context, accessToken, keyword, sortBy, subAffID, campaignID string, limit int) ([]lazada.Product, error)
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Tokens is the access token cell.
type Tokens interface {
	AccessToken(ctx context.Context) string
	Refresh(ctx context.Context, fn token.RefreshFunc) (string, error)
}

// LookupRecorder records per-keyword outcomes.
type LookupRecorder interface {
	RecordKeywordLookup(keyword, outcome string)
}

// Options configures a Resolver.
type Options struct {
	AffiliateID string
	CampaignID  string
	CatalogURL  string
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Recorder    LookupRecorder
}

// Resolver resolves keywords through the fallback chain.
type Resolver struct {
	api      API
	tokens   Tokens
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
	recorder LookupRecorder
}

// New creates a Resolver.
func New(api API, tokens Tokens, opts Options) *Resolver {
	if opts.CatalogURL == "" {
		opts.CatalogURL = DefaultCatalogURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		api:      api,
		tokens:   tokens,
		opts:     opts,
		logger:   logger,
		metrics:  opts.Metrics,
		recorder: opts.Recorder,
	}
}

// Query builds the outbound query for keyword.
func (r *Resolver) Query(keyword string) models.OutboundQuery {
	mode, value := validation.DetectLookupMode(keyword)
	return models.OutboundQuery{
		Keyword:     value,
		LookupMode:  mode,
		AffiliateID: r.opts.AffiliateID,
		CampaignID:  r.opts.CampaignID,
	}
}

// Resolve never fails: the result always carries a non-empty URL.
func (r *Resolver) Resolve(ctx context.Context, keyword string) models.ResolutionResult {
	q := r.Query(keyword)
	steps := []Step{
		{Name: "primary", Outcome: models.OutcomeMatched, Run: r.primary},
		{Name: "popular", Outcome: models.OutcomePopular, Run: r.popular},
	}

	res := models.ResolutionResult{
		URL:      CatalogURL(r.opts.CatalogURL, keyword),
		Degraded: true,
		Outcome:  models.OutcomeDegraded,
	}
	if product, step, ok := Evaluate(ctx, q, steps, r.observe); ok {
		res = models.ResolutionResult{
			URL:         product.Link,
			DisplayName: product.Name,
			Outcome:     step.Outcome,
		}
	}

	r.metrics.Resolution(res.Outcome)
	if r.recorder != nil {
		r.recorder.RecordKeywordLookup(keyword, res.Outcome)
	}
	r.logger.Info("Keyword resolved",
		zap.String("keyword", keyword),
		zap.Stringer("lookup_mode", q.LookupMode),
		zap.String("outcome", res.Outcome),
		zap.Bool("degraded", res.Degraded),
	)
	return res
}

func (r *Resolver) observe(step Step, res StepResult) {
	r.metrics.Step(step.Name, res.Outcome.String())
	if res.Err != nil {
		r.logger.Warn("Resolver step failed",
			zap.String("step", step.Name),
			zap.String("outcome", res.Outcome.String()),
			zap.Error(res.Err),
		)
	}
}

// primary runs the main lookup. A token-expiry answer triggers exactly one
// refresh and one retry; a second failure is final for this step.
func (r *Resolver) primary(ctx context.Context, q models.OutboundQuery) StepResult {
	res := r.lookup(ctx, q, r.tokens.AccessToken(ctx))
	if !lazada.IsTokenExpired(res.Err) {
		return res
	}

	r.logger.Info("Access token rejected, refreshing", zap.Error(res.Err))
	fresh, err := r.tokens.Refresh(ctx, r.api.RefreshToken)
	r.metrics.TokenRefresh(err == nil)
	if err != nil {
		return StepResult{Outcome: TransientFailure, Err: err}
	}
	return r.lookup(ctx, q, fresh)
}

func (r *Resolver) lookup(ctx context.Context, q models.OutboundQuery, accessToken string) StepResult {
	if q.LookupMode == models.ByProductID {
		product, err := r.api.GetLink(ctx, accessToken, q.Keyword, q.AffiliateID, q.CampaignID)
		return classify(product, err)
	}
	products, err := r.api.SearchProducts(ctx, accessToken, q.Keyword, lazada.SortRelevance, q.AffiliateID, q.CampaignID, 1)
	return classify(first(products), err)
}

// popular searches by sales volume. It never refreshes the token.
func (r *Resolver) popular(ctx context.Context, q models.OutboundQuery) StepResult {
	products, err := r.api.SearchProducts(ctx, r.tokens.AccessToken(ctx), q.Keyword, lazada.SortSales, q.AffiliateID, q.CampaignID, 1)
	return classify(first(products), err)
}

func first(products []lazada.Product) *lazada.Product {
	if len(products) == 0 {
		return nil
	}
	return &products[0]
}

func classify(product *lazada.Product, err error) StepResult {
	if err != nil {
		return StepResult{Outcome: TransientFailure, Err: err}
	}
	if product == nil {
		return StepResult{Outcome: NoMatch}
	}
	if ok, _ := validation.ValidateURL(product.Link); !ok {
		return StepResult{Outcome: NoMatch}
	}
	return StepResult{Outcome: Matched, Product: *product}
}

// CatalogURL substitutes the escaped keyword into template. A template
// without a {keyword} placeholder gets the keyword appended.
func CatalogURL(template, keyword string) string {
	if template == "" {
		template = DefaultCatalogURL
	}
	escaped := url.QueryEscape(keyword)
	if strings.Contains(template, "{keyword}") {
		return strings.ReplaceAll(template, "{keyword}", escaped)
	}
	return template + escaped
}
