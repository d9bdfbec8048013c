package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simplebim/license-server/internal/api/http/dto"
	"github.com/simplebim/license-server/internal/keys"
)

type KeysHandler struct {
	keyService *keys.Service
}

func NewKeysHandler(keyService *keys.Service) *KeysHandler {
	return &KeysHandler{keyService: keyService}
}

func (h *KeysHandler) Create(c *gin.Context) {
	var req dto.CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.keyService.Issue(c.Request.Context(), req.Type, req.Note)
	if err != nil {
		if errors.Is(err, keys.ErrInvalidKeyType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type: must be trial/month/year/lifetime"})
			return
		}
		slog.Error("Failed to issue key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, keyToResponse(rec))
}

func (h *KeysHandler) List(c *gin.Context) {
	records, err := h.keyService.List(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list keys", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]dto.KeyResponse, len(records))
	for i, rec := range records {
		responses[i] = keyToResponse(rec)
	}
	c.JSON(http.StatusOK, responses)
}

func (h *KeysHandler) Get(c *gin.Context) {
	rec, err := h.keyService.Get(c.Request.Context(), c.Param("key_value"))
	if err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
			return
		}
		slog.Error("Failed to get key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, keyToResponse(rec))
}

func (h *KeysHandler) Update(c *gin.Context) {
	var req dto.UpdateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.keyService.Update(c.Request.Context(), c.Param("key_value"), keys.UpdatePatch{
		IsActive: req.IsActive,
		Note:     req.Note,
	})
	if err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
			return
		}
		slog.Error("Failed to update key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, keyToResponse(rec))
}

func (h *KeysHandler) Delete(c *gin.Context) {
	if err := h.keyService.Delete(c.Request.Context(), c.Param("key_value")); err != nil {
		if errors.Is(err, keys.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
			return
		}
		slog.Error("Failed to delete key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "Deleted"})
}

// Validate is the public endpoint the add-in polls. Invalid keys are a
// business outcome: the response is always 200 with the valid discriminant.
func (h *KeysHandler) Validate(c *gin.Context) {
	var req dto.ValidateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	result, err := h.keyService.Validate(c.Request.Context(), keys.ValidatePayload{
		KeyValue:     req.KeyValue,
		MachineName:  req.MachineName,
		OSVersion:    req.OSVersion,
		RevitVersion: req.RevitVersion,
		CPUInfo:      req.CPUInfo,
		IPAddress:    req.IPAddress,
		MachineHash:  req.MachineHash,
	})
	if err != nil {
		slog.Error("Failed to validate key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.ValidateKeyResponse{
		Valid:       result.Valid,
		IsActive:    result.IsActive,
		ExpiredAt:   result.ExpiredAt,
		MachineHash: result.MachineHash,
		Note:        result.Note,
	})
}

func keyToResponse(rec *keys.KeyRecord) dto.KeyResponse {
	return dto.KeyResponse{
		KeyValue:     rec.KeyValue,
		IsActive:     rec.IsActive,
		CreatedAt:    rec.CreatedAt,
		ExpiredAt:    rec.ExpiredAt,
		Note:         rec.Note,
		MachineName:  rec.MachineName,
		OSVersion:    rec.OSVersion,
		RevitVersion: rec.RevitVersion,
		CPUInfo:      rec.CPUInfo,
		IPAddress:    rec.IPAddress,
		MachineHash:  rec.MachineHash,
		LastCheck:    rec.LastCheck,
	}
}
