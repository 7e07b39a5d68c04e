package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/suykerbuyk/recap/internal/quota"
	"github.com/suykerbuyk/recap/internal/recap"
	"github.com/suykerbuyk/recap/internal/store"
)

const (
	msgTooShort     = "Text is too short"
	msgLimitReached = "Daily limit reached"
	msgFailed       = "Failed to generate recap"
	msgNotFound     = "Recap not found"
	msgInternal     = "Internal server error"
	msgTooLarge     = "Request body too large"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type generateRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleGenerate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorBody{Error: msgTooLarge})
			return
		}
		c.JSON(http.StatusBadRequest, errorBody{Error: msgTooShort})
		return
	}

	user := userID(c)
	res, err := s.svc.Generate(c.Request.Context(), user, req.Text)
	switch {
	case err == nil:
		c.Header("X-Quota-Remaining", strconv.Itoa(res.Remaining))
		if res.RecapID != "" {
			c.Header("X-Recap-ID", res.RecapID)
		}
		c.JSON(http.StatusOK, res.Report)
	case errors.Is(err, recap.ErrInputTooShort):
		c.JSON(http.StatusBadRequest, errorBody{Error: msgTooShort})
	case errors.Is(err, quota.ErrQuotaExceeded):
		c.Header("X-Quota-Remaining", "0")
		c.JSON(http.StatusPaymentRequired, errorBody{Error: msgLimitReached, Details: s.limitDetails(c, user)})
	default:
		// The service already logged the cause with its diagnostics.
		s.log.Debug("generate failed", zap.String("user", user), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorBody{Error: msgFailed})
	}
}

func (s *Server) limitDetails(c *gin.Context, user string) string {
	u, err := s.svc.Usage(c.Request.Context(), user)
	if err != nil {
		return "You have used all of today's free generations."
	}
	return fmt.Sprintf("You have used all %d free generations for today. The allotment resets on %s.", u.Limit, u.ResetsOn)
}

func (s *Server) handleUsage(c *gin.Context) {
	u, err := s.svc.Usage(c.Request.Context(), userID(c))
	if err != nil {
		s.internalError(c, "read usage", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) handleList(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid limit"})
		return
	}
	list, err := s.svc.History(c.Request.Context(), userID(c), limit)
	if err != nil {
		s.internalError(c, "list recaps", err)
		return
	}
	if list == nil {
		list = []store.Recap{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGet(c *gin.Context) {
	r, err := s.svc.Get(c.Request.Context(), userID(c), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: msgNotFound})
		return
	}
	if err != nil {
		s.internalError(c, "get recap", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *Server) handleDelete(c *gin.Context) {
	err := s.svc.Delete(c.Request.Context(), userID(c), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: msgNotFound})
		return
	}
	if err != nil {
		s.internalError(c, "delete recap", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) internalError(c *gin.Context, op string, err error) {
	s.log.Error(op, zap.String("user", userID(c)), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorBody{Error: msgInternal})
}
