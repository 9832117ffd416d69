package ferguson

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/match"
	"github.com/cxc-ai/catalog-bot/pkg/unwrangle"
)

// Match types reported on annotated search results, strongest first.
const (
	MatchExactVariant    = "exact_variant"
	MatchFuzzyVariant    = "fuzzy_variant"
	MatchFirstVariant    = "first_variant"
	MatchBaseProduct     = "base_product"
	MatchProductFallback = "product_fallback"
)

var uidPattern = regexp.MustCompile(`uid=(\d+)`)

// NoProductsError reports a search that returned zero products.
type NoProductsError struct {
	ModelNumber string
}

func (e *NoProductsError) Error() string {
	return fmt.Sprintf("ferguson: no products found for model %s", e.ModelNumber)
}

// NoMatchError reports a search that returned products but none of their
// variants matched the requested model number at any tier. AvailableModels
// carries every variant model seen so callers can show the user what the
// catalog actually has.
type NoMatchError struct {
	ModelNumber     string
	AvailableModels []string
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("ferguson: no variant match for model %s (%d variants available)",
		e.ModelNumber, len(e.AvailableModels))
}

// Service wraps the Unwrangle client with variant matching, search-result
// ranking and search caching. Search responses are cached because repeat
// lookups for the same model are common and every upstream call costs
// credits.
type Service struct {
	client  unwrangle.Client
	matcher *match.Matcher
	cache   *gocache.Cache
}

// NewService creates a Service. A nil prefix list selects the default
// model-number prefix set.
func NewService(client unwrangle.Client, prefixes []string, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}
	return &Service{
		client:  client,
		matcher: match.New(prefixes),
		cache:   gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// SearchResult is a search response with per-product best-match
// annotations, reordered so exact matches come first.
type SearchResult struct {
	Query        string              `json:"search_query"`
	Page         int                 `json:"page"`
	TotalResults int                 `json:"total_results"`
	TotalPages   int                 `json:"total_pages"`
	ResultCount  int                 `json:"result_count"`
	Products     []unwrangle.Product `json:"products"`
	CreditsUsed  int                 `json:"credits_used"`
	Cached       bool                `json:"cached"`
}

// DetailResult is a detail response, with variant-specific fields promoted
// to the top level when the URL pinned a variant via its uid parameter.
type DetailResult struct {
	URL             string            `json:"url"`
	Detail          unwrangle.Product `json:"detail"`
	CreditsUsed     int               `json:"credits_used"`
	VariantSpecific bool              `json:"variant_specific"`
}

// LookupResult is the outcome of a complete model-number lookup: search,
// variant match, detail fetch and merge.
type LookupResult struct {
	ModelNumber  string            `json:"model_number"`
	MatchedModel string            `json:"matched_model"`
	MatchTier    match.Tier        `json:"match_type"`
	VariantURL   string            `json:"variant_url"`
	Product      unwrangle.Product `json:"product"`
	CreditsUsed  int               `json:"credits_used"`
}

// Search runs a catalog search and annotates each product with its best
// matching variant URL for the query, then reorders products by match
// quality.
func (s *Service) Search(ctx context.Context, query string, page int) (*SearchResult, error) {
	if page < 1 {
		page = 1
	}

	resp, cached, err := s.search(ctx, query, page)
	if err != nil {
		return nil, err
	}

	products := annotateMatches(resp.Results, query)

	return &SearchResult{
		Query:        query,
		Page:         page,
		TotalResults: resp.TotalResults,
		TotalPages:   resp.TotalPages,
		ResultCount:  resp.ResultCount,
		Products:     products,
		CreditsUsed:  resp.CreditsUsed,
		Cached:       cached,
	}, nil
}

// Detail fetches full attributes for a product URL. When the URL carries a
// uid query parameter naming a specific variant, that variant's fields are
// promoted over the base product's.
func (s *Service) Detail(ctx context.Context, productURL string) (*DetailResult, error) {
	resp, err := s.client.Detail(ctx, productURL)
	if err != nil {
		return nil, err
	}

	detail := resp.Detail
	variantSpecific := promoteVariant(detail, productURL)

	return &DetailResult{
		URL:             productURL,
		Detail:          detail,
		CreditsUsed:     resp.CreditsUsed,
		VariantSpecific: variantSpecific,
	}, nil
}

// Lookup resolves a model number end to end: search the catalog, match a
// variant, fetch its details and merge the search and detail snapshots.
func (s *Service) Lookup(ctx context.Context, modelNumber string, fuzzy bool) (*LookupResult, error) {
	resp, _, err := s.search(ctx, modelNumber, 1)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, &NoProductsError{ModelNumber: modelNumber}
	}

	catalog := toCatalog(resp.Results)
	result := s.matcher.FindVariant(catalog, modelNumber, fuzzy)
	if !result.Matched() {
		return nil, &NoMatchError{
			ModelNumber:     modelNumber,
			AvailableModels: variantModels(resp.Results),
		}
	}

	zap.L().Info("ferguson: variant matched",
		zap.String("model", modelNumber),
		zap.String("matched_model", result.ModelNumber),
		zap.String("tier", string(result.Tier)))

	detail, err := s.Detail(ctx, result.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "ferguson: fetch detail for %s", result.ModelNumber)
	}

	merged := MergeProducts(exactSearchProduct(resp.Results, modelNumber), detail.Detail)

	return &LookupResult{
		ModelNumber:  modelNumber,
		MatchedModel: result.ModelNumber,
		MatchTier:    result.Tier,
		VariantURL:   result.URL,
		Product:      merged,
		CreditsUsed:  resp.CreditsUsed + detail.CreditsUsed,
	}, nil
}

func (s *Service) search(ctx context.Context, query string, page int) (*unwrangle.SearchResponse, bool, error) {
	key := query + "|" + strconv.Itoa(page)
	if v, ok := s.cache.Get(key); ok {
		return v.(*unwrangle.SearchResponse), true, nil
	}

	resp, err := s.client.Search(ctx, query, page)
	if err != nil {
		return nil, false, err
	}
	s.cache.SetDefault(key, resp)
	return resp, false, nil
}

// annotateMatches adds best_match_url, best_match_model and match_type to
// each product, then returns the products grouped exact matches first,
// fuzzy matches second, everything else last.
func annotateMatches(products []unwrangle.Product, query string) []unwrangle.Product {
	target := canon(query)

	var exact, fuzzy, other []unwrangle.Product
	for _, product := range products {
		url, model, matchType := bestMatch(product, target)
		product["best_match_url"] = orNil(url)
		product["best_match_model"] = orNil(model)
		product["match_type"] = orNil(matchType)

		switch matchType {
		case MatchExactVariant:
			exact = append(exact, product)
		case MatchFuzzyVariant, MatchBaseProduct:
			fuzzy = append(fuzzy, product)
		default:
			other = append(other, product)
		}
	}

	reordered := make([]unwrangle.Product, 0, len(products))
	reordered = append(reordered, exact...)
	reordered = append(reordered, fuzzy...)
	reordered = append(reordered, other...)
	return reordered
}

func bestMatch(product unwrangle.Product, target string) (url, model, matchType string) {
	variants := product.Variants()

	for _, v := range variants {
		if canon(v.ModelNo()) == target {
			return v.URL(), v.ModelNo(), MatchExactVariant
		}
	}
	for _, v := range variants {
		if dehyphenate(canon(v.ModelNo())) == dehyphenate(target) {
			return v.URL(), v.ModelNo(), MatchFuzzyVariant
		}
	}
	if len(variants) > 0 {
		return variants[0].URL(), variants[0].ModelNo(), MatchFirstVariant
	}

	productModel := canon(product.ModelNo())
	if productModel == target || dehyphenate(productModel) == dehyphenate(target) {
		return product.URL(), product.ModelNo(), MatchBaseProduct
	}
	if product.URL() != "" {
		return product.URL(), product.ModelNo(), MatchProductFallback
	}
	return "", "", ""
}

// promoteVariant copies the uid-selected variant's fields to the top level
// of the detail record. Reports whether a variant was pinned.
func promoteVariant(detail unwrangle.Product, productURL string) bool {
	m := uidPattern.FindStringSubmatch(productURL)
	if m == nil {
		return false
	}
	uid, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}

	for _, v := range detail.Variants() {
		if v.Int("id") != uid {
			continue
		}
		detail["variant_model_number"] = v["model_number"]
		detail["variant_name"] = v["name"]
		detail["variant_color"] = v["color"]
		detail["variant_price"] = v["price"]
		detail["variant_images"] = v["images"]
		detail["variant_in_stock"] = v["in_stock"]
		detail["variant_url"] = v["url"]

		if s := v.Str("model_number"); s != "" {
			detail["model_number"] = s
		}
		if s := v.Str("name"); s != "" {
			detail["finish"] = s
		}
		if v["price"] != nil {
			detail["price"] = v["price"]
		}
		if imgs, ok := v["images"].([]any); ok && len(imgs) > 0 {
			base, _ := detail["images"].([]any)
			detail["images"] = append(append([]any{}, imgs...), base...)
		}
		break
	}
	return true
}

// exactSearchProduct returns the search product owning a variant whose
// model number equals the request exactly, or nil when none does. The
// merge degrades to detail-only data in the nil case.
func exactSearchProduct(products []unwrangle.Product, modelNumber string) unwrangle.Product {
	target := canon(modelNumber)
	for _, product := range products {
		for _, v := range product.Variants() {
			if canon(v.ModelNo()) == target {
				return product
			}
		}
	}
	return nil
}

func toCatalog(products []unwrangle.Product) []match.Product {
	catalog := make([]match.Product, 0, len(products))
	for _, p := range products {
		mp := match.Product{ModelNumber: p.ModelNo(), URL: p.URL()}
		for _, v := range p.Variants() {
			mp.Variants = append(mp.Variants, match.Variant{
				ModelNumber: v.ModelNo(),
				URL:         v.URL(),
			})
		}
		catalog = append(catalog, mp)
	}
	return catalog
}

func variantModels(products []unwrangle.Product) []string {
	var models []string
	for _, p := range products {
		for _, v := range p.Variants() {
			models = append(models, v.ModelNo())
		}
	}
	return models
}

func canon(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func dehyphenate(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '-' || s[i] == '_' {
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

func orNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
