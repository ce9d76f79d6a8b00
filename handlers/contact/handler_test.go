package contact_test

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/buger/jsonparser"
	"github.com/hearthside/foyer"
	"github.com/hearthside/foyer/core/models"
	"github.com/hearthside/foyer/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/hearthside/foyer/handlers/contact"
)

func TestContact(t *testing.T) {
	config := foyer.NewConfig()
	config.Port = 8152

	store := test.NewMockStore()
	server := foyer.NewServer(config, store)
	require.NoError(t, server.Start())
	defer server.Stop()

	time.Sleep(100 * time.Millisecond)

	post := func(body, contentType string) (int, []byte) {
		req, _ := http.NewRequest("POST", "http://localhost:8152/api/contact", strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, respBody
	}

	t.Run("message with optional fields is stored", func(t *testing.T) {
		store.ClearRecords()

		status, body := post(`{"name":" Bob ","email":" Bob@Acme.com ","message":"hello there"}`, "application/json")
		assert.Equal(t, 200, status)
		ok, _ := jsonparser.GetBoolean(body, "ok")
		assert.True(t, ok)

		records := store.Records()
		require.Len(t, records, 1)
		assert.Equal(t, models.RecordKindContact, records[0].Kind)
		assert.Equal(t, "Bob", records[0].Name)
		assert.Equal(t, "bob@acme.com", records[0].Email)
		assert.Equal(t, "hello there", records[0].Message)
		assert.True(t, strings.HasPrefix(records[0].SK, "msg#"))
	})

	t.Run("identical submissions create distinct records", func(t *testing.T) {
		store.ClearRecords()

		status, _ := post(`{"message":"hello"}`, "application/json")
		assert.Equal(t, 200, status)
		status, _ = post(`{"message":"hello"}`, "application/json")
		assert.Equal(t, 200, status)

		records := store.Records()
		require.Len(t, records, 2)
		assert.NotEqual(t, records[0].SK, records[1].SK)
	})

	t.Run("form encoded body is accepted", func(t *testing.T) {
		store.ClearRecords()

		form := url.Values{"name": []string{"Jane"}, "message": []string{"from a form"}}
		status, _ := post(form.Encode(), "application/x-www-form-urlencoded")
		assert.Equal(t, 200, status)

		records := store.Records()
		require.Len(t, records, 1)
		assert.Equal(t, "from a form", records[0].Message)
	})

	t.Run("empty messages are rejected without a record", func(t *testing.T) {
		for _, body := range []string{`{"message":""}`, `{"message":"   "}`, `{"name":"Bob"}`} {
			store.ClearRecords()

			status, respBody := post(body, "application/json")
			assert.Equal(t, 400, status, "expected 400 for %s", body)
			errMsg, _ := jsonparser.GetString(respBody, "error")
			assert.Equal(t, "message required", errMsg)
			assert.Len(t, store.Records(), 0)
		}
	})

	t.Run("store errors surface as server errors", func(t *testing.T) {
		store.ClearRecords()
		store.SetPutError(errors.New("dynamo on fire"))
		defer store.SetPutError(nil)

		status, respBody := post(`{"message":"hello"}`, "application/json")
		assert.Equal(t, 500, status)
		errMsg, _ := jsonparser.GetString(respBody, "error")
		assert.Contains(t, errMsg, "dynamo on fire")
	})
}
