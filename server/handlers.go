// HTTP handlers: command routing, executor reports, health, models, history.

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/richinex/fusionmcp/schema"
	"github.com/richinex/fusionmcp/storage"
)

// handleCommand routes a design command and answers with the full envelope.
// Validation failures map to 400 with the rejection envelope as body.
func (s *Server) handleCommand(c *gin.Context) {
	var cmd schema.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, schema.ErrorResponse(fmt.Sprintf("Invalid request body: %v", err)))
		return
	}

	resp, err := s.router.Route(c.Request.Context(), cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	s.recordOutcome(c.Request.Context(), cmd, resp)
	c.JSON(http.StatusOK, resp)
}

// executeActionRequest is the executor's outcome report for one action.
type executeActionRequest struct {
	ActionType   string         `json:"action_type" binding:"required"`
	ActionData   map[string]any `json:"action_data"`
	Success      bool           `json:"success"`
	ErrorMessage string         `json:"error_message"`
}

// handleExecuteAction appends an executor outcome to the action history.
func (s *Server) handleExecuteAction(c *gin.Context) {
	var req executeActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	record := storage.ActionRecord{
		ActionType:   req.ActionType,
		ActionData:   req.ActionData,
		Success:      req.Success,
		ErrorMessage: req.ErrorMessage,
	}
	if err := s.store.SaveAction(c.Request.Context(), record); err != nil {
		slog.Error("failed to record action", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to record action"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged"})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"providers":     s.router.Providers(),
		"cache_enabled": s.cfg.CacheEnabled,
	})
}

func (s *Server) handleModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.router.Models(c.Request.Context())})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid limit"})
		return
	}

	ctx := c.Request.Context()
	conversations, err := s.store.RecentConversations(ctx, limit)
	if err != nil {
		slog.Error("failed to read conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to read history"})
		return
	}

	// The add-in shows roughly two actions per exchange
	actions, err := s.store.RecentActions(ctx, limit*2)
	if err != nil {
		slog.Error("failed to read actions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "failed to read history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations, "actions": actions})
}

// recordOutcome appends the command outcome to history. Persistence is
// best-effort: a failing store never fails the request.
func (s *Server) recordOutcome(ctx context.Context, cmd schema.Command, resp *schema.Response) {
	switch cmd.Command {
	case schema.CommandAskModel:
		if resp.LLMResponse == nil {
			return
		}
		metadata := map[string]any{"status": string(resp.Status)}
		if tokens := resp.LLMResponse.Metadata.TokensUsed; tokens != nil {
			metadata["tokens_used"] = *tokens
		}
		conv := storage.Conversation{
			UserInput:   cmd.Params.Prompt,
			LLMResponse: resp.LLMResponse.RawOutput,
			Provider:    resp.LLMResponse.Provider,
			Model:       resp.LLMResponse.Model,
			Metadata:    metadata,
		}
		if err := s.store.SaveConversation(ctx, conv); err != nil {
			slog.Warn("failed to record conversation", "error", err)
		}
		if cmd.Context != nil {
			s.saveDesignState(ctx, cmd.Context)
		}
	case schema.CommandContextUpdate:
		if cmd.Context != nil {
			s.saveDesignState(ctx, cmd.Context)
		}
	}
}

func (s *Server) saveDesignState(ctx context.Context, designCtx *schema.DesignContext) {
	state := storage.DesignState{Context: contextMap(designCtx)}
	if err := s.store.SaveDesignState(ctx, state); err != nil {
		slog.Warn("failed to record design state", "error", err)
	}
}

// contextMap flattens the typed context into the open record shape.
func contextMap(designCtx *schema.DesignContext) map[string]any {
	raw, err := json.Marshal(designCtx)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
