package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/interflow/pkg/cache"
	"github.com/matzehuels/interflow/pkg/diagram"
	"github.com/matzehuels/interflow/pkg/model"
	"github.com/matzehuels/interflow/pkg/observability"
	"github.com/matzehuels/interflow/pkg/payload"
	"github.com/matzehuels/interflow/pkg/preview"
)

// Cache key types reported to observability hooks.
const (
	keyTypeDiagram = "diagram"
	keyTypePreview = "preview"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the cache lifetime of every entry. Zero uses
	// cache.TTLDiagram and cache.TTLPreview.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedDiagram is the cache entry for one built diagram.
type cachedDiagram struct {
	XML     []byte        `json:"xml"`
	Payload string        `json:"payload"`
	Stats   diagram.Stats `json:"stats"`
}

// Execute groups rows, builds the diagram and encodes the viewer URL.
// Input problems are returned as coded errors from pkg/errors.
func (r *Runner) Execute(ctx context.Context, rows []model.Row, opts Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	opts.SetDefaults()

	records, err := model.Group(rows)
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}

	canonical, err := model.Canonical(rows)
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	result := &Result{Records: records, RowsHash: cache.Hash(canonical)}
	key := r.Keyer.DiagramKey(result.RowsHash, cache.DiagramKeyOpts{StrictAppTypes: opts.StrictAppTypes})

	if !opts.Refresh {
		if entry, ok := r.cachedDiagram(ctx, key); ok {
			doc, err := diagram.Parse(entry.XML)
			if err == nil {
				doc.Stats = entry.Stats
				r.fill(result, doc, entry.XML, entry.Payload)
				result.CacheHit = true
				opts.Logger.Debug("diagram cache hit", "hash", result.RowsHash[:12])
				return result, nil
			}
			opts.Logger.Warn("discarding unreadable cache entry", "error", err)
		}
	}

	buildStart := time.Now()
	observability.Pipeline().OnBuildStart(ctx, len(records))
	doc, err := diagram.Build(records, opts.diagramOptions())
	result.Stats.BuildTime = time.Since(buildStart)
	if err != nil {
		observability.Pipeline().OnBuildComplete(ctx, 0, 0, result.Stats.BuildTime, err)
		return nil, fmt.Errorf("build: %w", err)
	}
	observability.Pipeline().OnBuildComplete(ctx, doc.Stats.Apps, doc.Stats.Rows, result.Stats.BuildTime, nil)

	encodeStart := time.Now()
	xml, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	p := payload.Encode(xml)
	result.Stats.EncodeTime = time.Since(encodeStart)
	observability.Pipeline().OnEncodeComplete(ctx, len(p), result.Stats.EncodeTime)

	r.fill(result, doc, xml, p)
	opts.Logger.Info("built diagram",
		"apps", doc.Stats.Apps,
		"rows", doc.Stats.Rows,
		"cells", doc.Stats.Cells,
		"skipped", doc.Stats.Skipped,
		"duration", result.Stats.BuildTime+result.Stats.EncodeTime)

	if data, err := json.Marshal(cachedDiagram{XML: xml, Payload: p, Stats: doc.Stats}); err == nil {
		r.store(ctx, keyTypeDiagram, key, data, r.ttl(cache.TTLDiagram))
	}
	return result, nil
}

// Preview renders a diagram preview, cached by the document content.
func (r *Runner) Preview(ctx context.Context, res *Result, opts Options) ([]byte, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForPreview(); err != nil {
		return nil, err
	}

	key := r.Keyer.PreviewKey(cache.Hash(res.XML), cache.PreviewKeyOpts{Format: opts.PreviewFormat})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, keyTypePreview)
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypePreview)
	}

	out, err := preview.Render(ctx, res.Document, opts.PreviewFormat)
	if err != nil {
		return nil, fmt.Errorf("preview: %w", err)
	}
	r.store(ctx, keyTypePreview, key, out, r.ttl(cache.TTLPreview))
	return out, nil
}

func (r *Runner) cachedDiagram(ctx context.Context, key string) (cachedDiagram, bool) {
	var entry cachedDiagram
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyTypeDiagram)
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		observability.Cache().OnCacheMiss(ctx, keyTypeDiagram)
		return entry, false
	}
	observability.Cache().OnCacheHit(ctx, keyTypeDiagram)
	return entry, true
}

// store writes a cache entry. Failures only cost a future rebuild.
func (r *Runner) store(ctx context.Context, keyType, key string, data []byte, ttl time.Duration) {
	err := cache.RetryWithBackoff(ctx, func() error {
		return r.Cache.Set(ctx, key, data, ttl)
	})
	if err != nil {
		r.Logger.Warn("cache write failed", "key_type", keyType, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

func (r *Runner) fill(res *Result, doc *diagram.Document, xml []byte, p string) {
	res.Document = doc
	res.XML = xml
	res.Payload = p
	res.URL = payload.URL(p)
	res.Stats.Rows = doc.Stats.Rows
	res.Stats.Apps = doc.Stats.Apps
	res.Stats.Cells = len(doc.Cells())
	res.Stats.Skipped = doc.Stats.Skipped
}

// applyLogger sets the runner's logger on opts if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
