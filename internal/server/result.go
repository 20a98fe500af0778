package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quizhive/quizhive/internal/export"
	resultdomain "github.com/quizhive/quizhive/internal/result/domain"
)

func (s *Server) SubmitAttempt(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req resultdomain.AttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	attempt, err := s.resultsvc.Attempt(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt)
}

func (s *Server) ListQuizResults(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	page, err := bindPagination(c)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	results, pageInfo, err := s.resultsvc.ListQuizResults(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": results, "page_info": pageInfo})
}

func (s *Server) ExportAttempt(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	format := export.Format(strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "json"))))
	artifact, err := s.exportsvc.ExportAttempt(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), c.Param("userId"), format)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Header("Content-Type", artifact.ContentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, artifact.Content)
}
