package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplebim/license-server/internal/api/http/dto"
)

func TestKeyBinding(t *testing.T, router *gin.Engine) {
	token := loginAdmin(t, router)

	rr := doJSONWithAuth(router, "POST", "/keys/create", dto.CreateKeyRequest{Type: "trial"}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	var key dto.KeyResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &key))
	require.NotEmpty(t, key.KeyValue)

	t.Run("first validation binds the machine", func(t *testing.T) {
		body := dto.ValidateKeyRequest{
			KeyValue:     key.KeyValue,
			MachineName:  "WS-01",
			OSVersion:    "Windows 10",
			RevitVersion: "2024",
			MachineHash:  "hash-one",
		}
		rr := doJSON(router, "POST", "/keys/validate", body)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ValidateKeyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		require.NotNil(t, resp.MachineHash)
		assert.Equal(t, "hash-one", *resp.MachineHash)
	})

	t.Run("second machine cannot steal the binding", func(t *testing.T) {
		body := dto.ValidateKeyRequest{
			KeyValue:    key.KeyValue,
			MachineName: "WS-02",
			MachineHash: "hash-two",
		}
		rr := doJSON(router, "POST", "/keys/validate", body)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ValidateKeyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		require.NotNil(t, resp.MachineHash)
		assert.Equal(t, "hash-one", *resp.MachineHash, "stored fingerprint must stay with the first machine")
	})

	t.Run("empty fields never clear stored metadata", func(t *testing.T) {
		// No os_version or revit_version in this payload.
		body := dto.ValidateKeyRequest{
			KeyValue:    key.KeyValue,
			MachineHash: "hash-one",
		}
		rr := doJSON(router, "POST", "/keys/validate", body)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = doJSONWithAuth(router, "GET", "/keys/"+key.KeyValue, nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var stored dto.KeyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stored))
		require.NotNil(t, stored.OSVersion)
		assert.Equal(t, "Windows 10", *stored.OSVersion)
		require.NotNil(t, stored.RevitVersion)
		assert.Equal(t, "2024", *stored.RevitVersion)
		require.NotNil(t, stored.MachineHash)
		assert.Equal(t, "hash-one", *stored.MachineHash)
		// Non-empty fields do refresh.
		require.NotNil(t, stored.MachineName)
		assert.Equal(t, "WS-02", *stored.MachineName)
		assert.NotNil(t, stored.LastCheck)
	})

	t.Run("locked key skips the metadata refresh", func(t *testing.T) {
		inactive := false
		rr := doJSONWithAuth(router, "PUT", "/keys/"+key.KeyValue, dto.UpdateKeyRequest{IsActive: &inactive}, token)
		require.Equal(t, http.StatusOK, rr.Code)

		body := dto.ValidateKeyRequest{
			KeyValue:    key.KeyValue,
			MachineName: "WS-03",
			MachineHash: "hash-three",
		}
		rr = doJSON(router, "POST", "/keys/validate", body)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp dto.ValidateKeyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.Equal(t, "Key is locked", resp.Note)

		rr = doJSONWithAuth(router, "GET", "/keys/"+key.KeyValue, nil, token)
		require.Equal(t, http.StatusOK, rr.Code)

		var stored dto.KeyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stored))
		require.NotNil(t, stored.MachineName)
		assert.Equal(t, "WS-02", *stored.MachineName)
	})
}

func loginAdmin(t *testing.T, router *gin.Engine) string {
	t.Helper()

	rr := doJSON(router, "POST", "/auth/login", dto.LoginRequest{Username: "admin", Password: "changeme"})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dto.TokenResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	return doJSONWithAuth(router, method, path, body, "")
}

func doJSONWithAuth(router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}
