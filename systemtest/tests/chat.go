package tests

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplebim/license-server/internal/api/http/dto"
)

func TestChatCacheAdmin(t *testing.T, router *gin.Engine) {
	token := loginAdmin(t, router)

	rr := doJSONWithAuth(router, "POST", "/chat/sessions", dto.CreateSessionRequest{Title: "IFC export help"}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var session dto.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &session))
	require.NotEmpty(t, session.ID)

	t.Run("rename session", func(t *testing.T) {
		body := dto.RenameSessionRequest{Title: "IFC export walkthrough"}
		rr := doJSONWithAuth(router, "PUT", "/chat/sessions/"+session.ID, body, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var renamed dto.SessionResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &renamed))
		assert.Equal(t, "IFC export walkthrough", renamed.Title)
	})

	t.Run("cache store, list and delete", func(t *testing.T) {
		store := dto.CacheStoreRequest{Query: "How to export IFC?", Response: "use the export dialog"}
		rr := doJSONWithAuth(router, "POST", "/chat/cache/store", store, token)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = doJSONWithAuth(router, "GET", "/chat/cache", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var entries []dto.CachedQueryResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
		require.NotEmpty(t, entries)
		assert.Equal(t, "how to export ifc", entries[0].Query)

		rr = doJSONWithAuth(router, "DELETE", "/chat/cache/"+strconv.FormatInt(entries[0].ID, 10), nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		// Deleted rows must not keep answering lookups.
		rr = doJSONWithAuth(router, "POST", "/chat/cache/lookup", dto.CacheLookupRequest{Query: "how to export ifc"}, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var lookup dto.CacheLookupResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lookup))
		assert.False(t, lookup.Hit)
	})

	t.Run("statistics", func(t *testing.T) {
		rr := doJSONWithAuth(router, "GET", "/chat/statistics", nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var stats dto.ChatStatisticsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
		assert.GreaterOrEqual(t, stats.TotalSessions, int64(1))
	})
}
