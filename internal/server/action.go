package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	actiondomain "github.com/quizhive/quizhive/internal/action/domain"
)

func (s *Server) InviteUsers(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req actiondomain.InviteUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.actionsvc.InviteUsers(c.Request.Context(), actorID, c.Param("id"), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (s *Server) CancelInvite(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.actionsvc.CancelInvite(c.Request.Context(), actorID, c.Param("id"), c.Param("userId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) AcceptInvite(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.actionsvc.AcceptInvite(c.Request.Context(), actorID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) DeclineInvite(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.actionsvc.DeclineInvite(c.Request.Context(), actorID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) RequestToJoin(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req actiondomain.JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.actionsvc.RequestToJoin(c.Request.Context(), actorID, c.Param("id"), req); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

func (s *Server) CancelRequest(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.actionsvc.CancelRequest(c.Request.Context(), actorID, c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) AcceptRequest(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.actionsvc.AcceptRequest(c.Request.Context(), actorID, c.Param("id"), c.Param("userId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) DeclineRequest(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.actionsvc.DeclineRequest(c.Request.Context(), actorID, c.Param("id"), c.Param("userId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) ListCompanyInvites(c *gin.Context) {
	s.listCompanyActions(c, actiondomain.KindInvite)
}

func (s *Server) ListCompanyRequests(c *gin.Context) {
	s.listCompanyActions(c, actiondomain.KindRequest)
}

func (s *Server) listCompanyActions(c *gin.Context, kind actiondomain.Kind) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actions, err := s.actionsvc.ListCompanyActions(c.Request.Context(), actorID, c.Param("id"), kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": actions})
}

func (s *Server) ListMyInvites(c *gin.Context) {
	s.listMyActions(c, actiondomain.KindInvite)
}

func (s *Server) ListMyRequests(c *gin.Context) {
	s.listMyActions(c, actiondomain.KindRequest)
}

func (s *Server) listMyActions(c *gin.Context, kind actiondomain.Kind) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	actions, err := s.actionsvc.ListMyActions(c.Request.Context(), actorID, kind)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": actions})
}
