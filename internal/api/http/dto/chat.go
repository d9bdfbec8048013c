package dto

import "time"

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type SessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageResponse struct {
	ID              int64     `json:"id"`
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	IsFromCache     bool      `json:"is_from_cache"`
	SimilarityScore *float64  `json:"similarity_score,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type AppendMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

type CacheLookupRequest struct {
	Query string `json:"query" binding:"required"`
}

type CacheLookupResponse struct {
	Hit        bool    `json:"hit"`
	Response   string  `json:"response,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

type CacheStoreRequest struct {
	Query    string `json:"query" binding:"required"`
	Response string `json:"response" binding:"required"`
}

type RenameSessionRequest struct {
	Title string `json:"title" binding:"required"`
}

type CachedQueryResponse struct {
	ID         int64     `json:"id"`
	Query      string    `json:"query"`
	Response   string    `json:"response"`
	HitCount   int       `json:"hit_count"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at"`
}

type ChatStatisticsResponse struct {
	TotalSessions  int64 `json:"total_sessions"`
	ActiveSessions int64 `json:"active_sessions"`
	TotalMessages  int64 `json:"total_messages"`
	CacheAnswered  int64 `json:"cache_answered"`
	CachedQueries  int64 `json:"cached_queries"`
	CacheHits      int64 `json:"cache_hits"`
}
