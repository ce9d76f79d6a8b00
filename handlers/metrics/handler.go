package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/hearthside/foyer"
	"github.com/hearthside/foyer/core/models"
	cache "github.com/patrickmn/go-cache"
)

const summaryCacheKey = "summary"

// computed summaries are cached briefly so dashboard polling doesn't rescan the table
var summaryCache = cache.New(time.Minute, 5*time.Minute)

func init() {
	foyer.RegisterHandler(newHandler())
}

type handler struct {
	server foyer.Server
}

func newHandler() foyer.Handler {
	return &handler{}
}

func (h *handler) Name() string { return "Metrics" }

// Initialize implements foyer.Handler
func (h *handler) Initialize(s foyer.Server) error {
	h.server = s
	s.AddAuthedHandlerRoute(h, http.MethodGet, "/api/metrics/summary", h.summary)
	return nil
}

type summaryResponse struct {
	SubscribeCountSample int `json:"subscribe_count_sample"`
	ContactCountSample   int `json:"contact_count_sample"`
}

// summary counts record kinds within a bounded sample of the table. The counts are explicitly
// sample based, not totals over all time, and the field names say so.
func (h *handler) summary(ctx context.Context, r *http.Request) (*foyer.Response, error) {
	config := h.server.Config()

	if config.MetricsCacheTTL > 0 {
		if cached, found := summaryCache.Get(summaryCacheKey); found {
			return foyer.NewDataResponse(cached), nil
		}
	}

	records, err := h.server.Store().SampleRecords(ctx, config.MetricsSampleSize)
	if err != nil {
		return nil, err
	}

	summary := &summaryResponse{}
	for _, rec := range records {
		switch rec.Kind {
		case models.RecordKindSubscription:
			summary.SubscribeCountSample++
		case models.RecordKindContact:
			summary.ContactCountSample++
		}
	}

	if config.MetricsCacheTTL > 0 {
		summaryCache.Set(summaryCacheKey, summary, time.Duration(config.MetricsCacheTTL)*time.Second)
	}

	return foyer.NewDataResponse(summary), nil
}
