package enrich

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxc-ai/catalog-bot/internal/model"
)

func homeProductRequest() model.EnrichRequest {
	return model.EnrichRequest{Brand: "Delta", ModelNumber: "T14264"}
}

func TestPriceGateVerifiedMSRPKept(t *testing.T) {
	chain := &stubChain{text: `{
		"product_identity": {
			"msrp_price": "$499",
			"msrp_sources": ["ferguson", "homedepot"]
		}
	}`}
	e := New(chain, nil, Options{})

	res, err := e.Enrich(context.Background(), model.PortalHomeProducts, homeProductRequest(), CallMeta{})
	require.NoError(t, err)

	pi, ok := res.Data["product_identity"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "$499", pi["msrp_price"])
	assert.Equal(t, "verified", pi["msrp_confidence"])
	assert.Equal(t, 2, pi["msrp_source_count"])
	assert.Equal(t, true, pi["msrp_verified"])
}

func TestPriceGateSingleSourceMSRPNulled(t *testing.T) {
	chain := &stubChain{text: `{
		"product_identity": {
			"msrp_price": "$499",
			"msrp_sources": ["homedepot"]
		}
	}`}
	// Lenient verification does not exempt pricing.
	e := New(chain, nil, Options{Strict: false})

	res, err := e.Enrich(context.Background(), model.PortalHomeProducts, homeProductRequest(), CallMeta{})
	require.NoError(t, err)

	pi := res.Data["product_identity"].(map[string]any)
	assert.Nil(t, pi["msrp_price"])
	assert.Nil(t, pi["msrp_confidence"])
	assert.Equal(t, 0, pi["msrp_source_count"])
	assert.Equal(t, false, pi["msrp_verified"])
	assert.Empty(t, pi["msrp_sources"])
}

func TestPriceGateUnauthorizedSourcesNulled(t *testing.T) {
	chain := &stubChain{text: `{
		"product_identity": {
			"msrp_price": "$499",
			"msrp_sources": ["randomblog.net", "dealsite.com"]
		}
	}`}
	e := New(chain, nil, Options{})

	res, err := e.Enrich(context.Background(), model.PortalHomeProducts, homeProductRequest(), CallMeta{})
	require.NoError(t, err)

	pi := res.Data["product_identity"].(map[string]any)
	assert.Nil(t, pi["msrp_price"])
	assert.Equal(t, false, pi["msrp_verified"])
}

func TestPriceGatePartsUsesPartsChannels(t *testing.T) {
	chain := &stubChain{text: `{
		"core_identification": {
			"part_number": "WP2198202",
			"price": "$38.99",
			"price_sources": ["PartSelect", "RepairClinic"]
		}
	}`}
	e := New(chain, nil, Options{})

	res, err := e.Enrich(context.Background(), model.PortalParts,
		model.EnrichRequest{Brand: "Whirlpool", PartNumber: "WP2198202"}, CallMeta{})
	require.NoError(t, err)

	ci := res.Data["core_identification"].(map[string]any)
	assert.Equal(t, "$38.99", ci["price"])
	assert.Equal(t, true, ci["price_verified"])
	assert.Equal(t, 2, ci["price_source_count"])
}

func TestPriceGatePartsRejectsRetailOnlySources(t *testing.T) {
	// bestbuy and costco clear the MSRP list but not the parts one.
	chain := &stubChain{text: `{
		"core_identification": {
			"price": "$38.99",
			"price_sources": ["bestbuy", "costco"]
		}
	}`}
	e := New(chain, nil, Options{})

	res, err := e.Enrich(context.Background(), model.PortalParts,
		model.EnrichRequest{Brand: "Whirlpool", PartNumber: "WP2198202"}, CallMeta{})
	require.NoError(t, err)

	ci := res.Data["core_identification"].(map[string]any)
	assert.Nil(t, ci["price"])
	assert.Equal(t, false, ci["price_verified"])
}

func TestPriceGateMissingSectionIsNoop(t *testing.T) {
	chain := &stubChain{text: `{"brand": "Delta"}`}
	e := New(chain, nil, Options{})

	_, err := e.Enrich(context.Background(), model.PortalHomeProducts, homeProductRequest(), CallMeta{})
	require.NoError(t, err)
}

func TestPriceGateSkipsCatalogPortal(t *testing.T) {
	chain := &stubChain{text: `{
		"product_identity": {
			"msrp_price": "$499",
			"msrp_sources": ["homedepot"]
		}
	}`}
	e := New(chain, nil, Options{})

	res, err := e.Enrich(context.Background(), model.PortalCatalog, catalogRequest(), CallMeta{})
	require.NoError(t, err)

	pi := res.Data["product_identity"].(map[string]any)
	assert.Equal(t, "$499", pi["msrp_price"])
}
