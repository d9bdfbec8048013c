package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simplebim/license-server/internal/api/http/dto"
	"github.com/simplebim/license-server/internal/chat"
)

type ChatHandler struct {
	chatService *chat.Service
	queryCache  *chat.QueryCache
}

func NewChatHandler(chatService *chat.Service, queryCache *chat.QueryCache) *ChatHandler {
	return &ChatHandler{chatService: chatService, queryCache: queryCache}
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	// An empty or absent body is fine: the title defaults.
	var req dto.CreateSessionRequest
	_ = c.ShouldBindJSON(&req)

	userID := authedUserID(c)
	session, err := h.chatService.CreateSession(c.Request.Context(), userID, req.Title)
	if err != nil {
		slog.Error("Failed to create chat session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, sessionToResponse(session))
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	userID := authedUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessions, err := h.chatService.ListSessions(c.Request.Context(), *userID)
	if err != nil {
		slog.Error("Failed to list chat sessions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]dto.SessionResponse, len(sessions))
	for i, session := range sessions {
		responses[i] = sessionToResponse(session)
	}
	c.JSON(http.StatusOK, responses)
}

func (h *ChatHandler) RenameSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	var req dto.RenameSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.chatService.RenameSession(c.Request.Context(), id, req.Title)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		slog.Error("Failed to rename chat session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, sessionToResponse(session))
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.chatService.DeleteSession(c.Request.Context(), id); err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		slog.Error("Failed to delete chat session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Deleted"})
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), id)
	if err != nil {
		slog.Error("Failed to list chat messages", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]dto.MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = messageToResponse(m)
	}
	c.JSON(http.StatusOK, responses)
}

// AppendMessage stores one message. A user message is first answered from the
// query cache; a cache hit appends the cached assistant reply in the same
// call.
func (h *ChatHandler) AppendMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	var req dto.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.chatService.AppendMessage(c.Request.Context(), id, req.Role, req.Content, false, nil)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		slog.Error("Failed to append chat message", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := []dto.MessageResponse{messageToResponse(message)}

	if req.Role == chat.RoleUser {
		hit, ok, err := h.queryCache.Lookup(c.Request.Context(), req.Content)
		if err != nil {
			slog.Warn("Query cache lookup failed", "error", err)
		} else if ok {
			reply, err := h.chatService.AppendMessage(c.Request.Context(), id,
				chat.RoleAssistant, hit.Response, true, &hit.Similarity)
			if err != nil {
				slog.Error("Failed to append cached reply", "error", err)
			} else {
				responses = append(responses, messageToResponse(reply))
			}
		}
	}

	c.JSON(http.StatusOK, responses)
}

func (h *ChatHandler) CacheLookup(c *gin.Context) {
	var req dto.CacheLookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hit, ok, err := h.queryCache.Lookup(c.Request.Context(), req.Query)
	if err != nil {
		slog.Error("Query cache lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if !ok {
		c.JSON(http.StatusOK, dto.CacheLookupResponse{Hit: false})
		return
	}
	c.JSON(http.StatusOK, dto.CacheLookupResponse{
		Hit:        true,
		Response:   hit.Response,
		Similarity: hit.Similarity,
	})
}

func (h *ChatHandler) CacheStore(c *gin.Context) {
	var req dto.CacheStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.queryCache.Store(c.Request.Context(), req.Query, req.Response); err != nil {
		slog.Error("Failed to store cached query", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// ListCache returns the stored cache rows, most recently used first.
func (h *ChatHandler) ListCache(c *gin.Context) {
	entries, err := h.queryCache.Entries(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list cached queries", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	responses := make([]dto.CachedQueryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = dto.CachedQueryResponse{
			ID:         entry.ID,
			Query:      entry.QueryNormalized,
			Response:   entry.Response,
			HitCount:   entry.HitCount,
			CreatedAt:  entry.CreatedAt,
			LastUsedAt: entry.LastUsedAt,
		}
	}
	c.JSON(http.StatusOK, responses)
}

func (h *ChatHandler) DeleteCache(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cache entry id"})
		return
	}

	if err := h.queryCache.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, chat.ErrCacheEntryNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Cache entry not found"})
			return
		}
		slog.Error("Failed to delete cached query", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detail": "Deleted"})
}

func (h *ChatHandler) Statistics(c *gin.Context) {
	stats, err := h.chatService.Statistics(c.Request.Context())
	if err != nil {
		slog.Error("Failed to aggregate chat statistics", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, dto.ChatStatisticsResponse{
		TotalSessions:  stats.TotalSessions,
		ActiveSessions: stats.ActiveSessions,
		TotalMessages:  stats.TotalMessages,
		CacheAnswered:  stats.CacheAnswered,
		CachedQueries:  stats.CachedQueries,
		CacheHits:      stats.CacheHits,
	})
}

// authedUserID reads the user id set by the JWT middleware, nil when the
// claim is absent or malformed.
func authedUserID(c *gin.Context) *uuid.UUID {
	raw, ok := c.Get("user_id")
	if !ok {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func sessionToResponse(session *chat.Session) dto.SessionResponse {
	return dto.SessionResponse{
		ID:        session.ID.String(),
		Title:     session.Title,
		IsActive:  session.IsActive,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

func messageToResponse(m *chat.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:              m.ID,
		Role:            m.Role,
		Content:         m.Content,
		IsFromCache:     m.IsFromCache,
		SimilarityScore: m.SimilarityScore,
		CreatedAt:       m.CreatedAt,
	}
}
