package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cxc-ai/catalog-bot/internal/model"
	"github.com/cxc-ai/catalog-bot/internal/provider"
	"github.com/cxc-ai/catalog-bot/internal/verify"
)

// defaultKeepLogs caps the call-log table size.
const defaultKeepLogs = 100

// completionChain is the provider fallback surface the enricher needs.
type completionChain interface {
	Complete(ctx context.Context, req provider.Request) (*provider.Result, error)
}

// Recorder persists call logs. A store.Store satisfies it.
type Recorder interface {
	InsertCallLog(ctx context.Context, entry *model.CallLog) error
	PruneCallLogs(ctx context.Context, keep int) (int, error)
}

// Options configures verification behavior across portals.
type Options struct {
	// Strict nulls out any critical field that fails verification
	// instead of passing it through flagged.
	Strict bool
	// CriticalFields overrides DefaultCriticalFields per portal.
	CriticalFields map[model.Portal][]string
	// AuthorizedSources overrides DefaultAuthorizedSources.
	AuthorizedSources []string
	// KeepLogs caps retained call logs; defaults to 100.
	KeepLogs int
}

// Enricher runs LLM product enrichment with source verification and
// call logging.
type Enricher struct {
	chain    completionChain
	recorder Recorder
	opts     Options
}

// New creates an Enricher. recorder may be nil to disable call logging.
func New(chain completionChain, recorder Recorder, opts Options) *Enricher {
	if opts.CriticalFields == nil {
		opts.CriticalFields = DefaultCriticalFields
	}
	if len(opts.AuthorizedSources) == 0 {
		opts.AuthorizedSources = DefaultAuthorizedSources
	}
	if opts.KeepLogs <= 0 {
		opts.KeepLogs = defaultKeepLogs
	}
	return &Enricher{chain: chain, recorder: recorder, opts: opts}
}

// Result is one completed enrichment.
type Result struct {
	Data         map[string]any `json:"data"`
	Report       *verify.Report `json:"verification"`
	Provider     string         `json:"ai_provider"`
	Model        string         `json:"ai_model"`
	TokensUsed   int            `json:"tokens_used"`
	Completeness float64        `json:"completeness"`
	ResponseTime float64        `json:"response_time"` // seconds
}

// CallMeta describes where an enrichment request came from, for call
// logging only.
type CallMeta struct {
	Source    model.CallSource
	UserAgent string
}

// Enrich asks the provider chain about the product, verifies the answer
// field by field and logs the call. The returned record has failed
// critical fields nulled when strict mode is on.
func (e *Enricher) Enrich(ctx context.Context, portal model.Portal, req model.EnrichRequest, meta CallMeta) (*Result, error) {
	if msg := req.Validate(); msg != "" {
		return nil, eris.New("enrich: " + msg)
	}

	start := time.Now()
	completion, err := e.chain.Complete(ctx, BuildRequest(portal, req))
	if err != nil {
		e.record(ctx, portal, req, meta, nil, err, time.Since(start))
		return nil, eris.Wrapf(err, "enrich: complete %s request", portal)
	}

	record, err := decodeRecord(completion.Text)
	if err != nil {
		e.record(ctx, portal, req, meta, completion, err, time.Since(start))
		return nil, err
	}

	e.enforcePriceGate(portal, record)

	// Stamp provenance the way the validator's verified_by fallback
	// expects before validating.
	record["verified_by"] = fmt.Sprintf("%s %s", completion.Provider, completion.Model)
	record["enriched_at"] = time.Now().UTC().Format(time.RFC3339)
	record["ai_provider"] = completion.Provider

	validated, report := verify.ValidateRecord(record, verify.Options{
		Portal:            string(portal),
		CriticalFields:    e.opts.CriticalFields[portal],
		AuthorizedSources: e.opts.AuthorizedSources,
		Strict:            e.opts.Strict,
	})

	result := &Result{
		Data:         validated,
		Report:       report,
		Provider:     completion.Provider,
		Model:        completion.Model,
		TokensUsed:   completion.InputTokens + completion.OutputTokens,
		Completeness: CompletenessScore(validated),
		ResponseTime: time.Since(start).Seconds(),
	}

	zap.L().Info("enrich: record verified",
		zap.String("portal", string(portal)),
		zap.String("provider", result.Provider),
		zap.String("identifier", req.Identifier()),
		zap.Float64("verification_rate", report.VerificationRate),
		zap.Float64("completeness", result.Completeness))

	e.recordResult(ctx, portal, req, meta, result)
	return result, nil
}

func (e *Enricher) recordResult(ctx context.Context, portal model.Portal, req model.EnrichRequest, meta CallMeta, res *Result) {
	e.insert(ctx, &model.CallLog{
		Portal:       portal,
		Endpoint:     portal.Endpoint(),
		Source:       meta.Source,
		Provider:     res.Provider,
		Success:      true,
		ResponseTime: res.ResponseTime,
		ModelNumber:  req.Identifier(),
		Brand:        req.Brand,
		UserAgent:    truncate(meta.UserAgent, 100),
		TokensUsed:   res.TokensUsed,
		Completeness: res.Completeness,
	})
}

func (e *Enricher) record(ctx context.Context, portal model.Portal, req model.EnrichRequest, meta CallMeta, completion *provider.Result, callErr error, elapsed time.Duration) {
	entry := &model.CallLog{
		Portal:       portal,
		Endpoint:     portal.Endpoint(),
		Source:       meta.Source,
		Success:      false,
		ResponseTime: elapsed.Seconds(),
		ModelNumber:  req.Identifier(),
		Brand:        req.Brand,
		UserAgent:    truncate(meta.UserAgent, 100),
		Error:        callErr.Error(),
	}
	if completion != nil {
		entry.Provider = completion.Provider
		entry.TokensUsed = completion.InputTokens + completion.OutputTokens
	}
	e.insert(ctx, entry)
}

func (e *Enricher) insert(ctx context.Context, entry *model.CallLog) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.InsertCallLog(ctx, entry); err != nil {
		zap.L().Warn("enrich: insert call log", zap.Error(err))
		return
	}
	if _, err := e.recorder.PruneCallLogs(ctx, e.opts.KeepLogs); err != nil {
		zap.L().Warn("enrich: prune call logs", zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
