package posts

import (
	"errors"
	"net/http"

	"chain-calculator/internal/auth"
	"chain-calculator/internal/chain"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/respond"
)

// Handler serves the node endpoints.
type Handler struct {
	Engine *chain.Engine
}

// NewHandler returns a Handler that computes nodes through engine.
func NewHandler(engine *chain.Engine) *Handler {
	return &Handler{Engine: engine}
}

// HandleListNodes serves GET /post: every node, newest first.
func (h *Handler) HandleListNodes(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.Engine.ListNodes(r.Context())
	if err != nil {
		logger.LogERROR("Failed to list nodes: " + err.Error())
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}

	respond.JSON(w, http.StatusOK, ListResponse{Data: nodes})
}

// HandleCreateRoot serves POST /post.
func (h *Handler) HandleCreateRoot(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireAuth(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateRootRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, DescribeValidation(err))
		return
	}

	node, err := h.Engine.CreateRoot(r.Context(), userID, req.Value.String())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, node)
}

// HandleReply serves POST /post/reply.
func (h *Handler) HandleReply(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireAuth(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReplyRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, DescribeValidation(err))
		return
	}

	node, err := h.Engine.ApplyOperation(r.Context(), userID, req.ParentID, req.Operation, req.Value.String())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, node)
}

// StatusFor maps an engine error to its HTTP status and client message.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, chain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, chain.ErrParentNotFound):
		return http.StatusNotFound, "Parent post not found"
	case errors.Is(err, chain.ErrDivisionByZero):
		return http.StatusBadRequest, "Division by zero"
	case errors.Is(err, chain.ErrInvalidOperation):
		return http.StatusBadRequest, "Invalid operation"
	case errors.Is(err, chain.ErrInvalidValue):
		return http.StatusBadRequest, "Invalid value"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	status, message := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.LogERROR(err.Error())
	}
	respond.Error(w, status, message)
}
