package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/buger/jsonparser"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hearthside/foyer"
	"github.com/hearthside/foyer/core/models"
	"github.com/hearthside/foyer/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, secret string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ops@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestSummary(t *testing.T) {
	config := foyer.NewConfig()
	config.Port = 8153
	config.JWTSecret = "sesame"
	config.MetricsSampleSize = 3
	config.MetricsCacheTTL = 0

	store := test.NewMockStore()
	server := foyer.NewServer(config, store)
	require.NoError(t, server.Start())
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	get := func(token string) (int, []byte) {
		req, _ := http.NewRequest("GET", "http://localhost:8153/api/metrics/summary", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, respBody
	}

	seed := func(subs, msgs int) {
		store.ClearRecords()
		for i := 0; i < subs; i++ {
			store.PutRecord(context.Background(), models.NewSubscription("default", string(rune('a'+i))+"@x.com", "idem"))
		}
		for i := 0; i < msgs; i++ {
			store.PutRecord(context.Background(), models.NewContactMessage("default", "", "", "hi"))
		}
	}

	t.Run("requests without a valid token are rejected before the store is read", func(t *testing.T) {
		store.SetSampleError(errors.New("should not be called"))
		defer store.SetSampleError(nil)

		status, body := get("")
		assert.Equal(t, 401, status)
		errMsg, _ := jsonparser.GetString(body, "error")
		assert.Equal(t, "unauthorized", errMsg)

		status, _ = get(makeToken(t, "wrong-secret"))
		assert.Equal(t, 401, status)
	})

	t.Run("counts kinds within the sample", func(t *testing.T) {
		summaryCache.Flush()
		seed(2, 1)

		status, body := get(makeToken(t, "sesame"))
		assert.Equal(t, 200, status)

		subs, _ := jsonparser.GetInt(body, "subscribe_count_sample")
		msgs, _ := jsonparser.GetInt(body, "contact_count_sample")
		assert.Equal(t, int64(2), subs)
		assert.Equal(t, int64(1), msgs)
	})

	t.Run("counts never exceed the sample size", func(t *testing.T) {
		summaryCache.Flush()
		seed(4, 4)

		status, body := get(makeToken(t, "sesame"))
		assert.Equal(t, 200, status)

		subs, _ := jsonparser.GetInt(body, "subscribe_count_sample")
		msgs, _ := jsonparser.GetInt(body, "contact_count_sample")
		assert.LessOrEqual(t, subs+msgs, int64(config.MetricsSampleSize))
	})

	t.Run("cached summaries are served until the TTL expires", func(t *testing.T) {
		summaryCache.Flush()
		config.MetricsCacheTTL = 60
		defer func() { config.MetricsCacheTTL = 0 }()

		seed(1, 0)
		status, body := get(makeToken(t, "sesame"))
		assert.Equal(t, 200, status)
		subs, _ := jsonparser.GetInt(body, "subscribe_count_sample")
		assert.Equal(t, int64(1), subs)

		// new records don't show up while the summary is cached
		seed(2, 0)
		status, body = get(makeToken(t, "sesame"))
		assert.Equal(t, 200, status)
		subs, _ = jsonparser.GetInt(body, "subscribe_count_sample")
		assert.Equal(t, int64(1), subs)
	})

	t.Run("store errors surface as server errors", func(t *testing.T) {
		summaryCache.Flush()
		store.SetSampleError(errors.New("dynamo on fire"))
		defer store.SetSampleError(nil)

		status, body := get(makeToken(t, "sesame"))
		assert.Equal(t, 500, status)
		errMsg, _ := jsonparser.GetString(body, "error")
		assert.Contains(t, errMsg, "dynamo on fire")
	})
}
