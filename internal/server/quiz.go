package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	quizdomain "github.com/quizhive/quizhive/internal/quiz/domain"
)

func (s *Server) CreateQuiz(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req quizdomain.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quiz, err := s.quizsvc.Create(c.Request.Context(), actorID, c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

func (s *Server) ListQuizzes(c *gin.Context) {
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

	quizzes, pageInfo, err := s.quizsvc.List(c.Request.Context(), actorID, c.Param("id"), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": quizzes, "page_info": pageInfo})
}

func (s *Server) GetQuiz(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	quiz, err := s.quizsvc.GetByID(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (s *Server) UpdateQuiz(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req quizdomain.UpdateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quiz, err := s.quizsvc.Update(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, quiz)
}

func (s *Server) DeleteQuiz(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.quizsvc.Delete(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) AddQuestion(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req quizdomain.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	question, err := s.quizsvc.AddQuestion(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (s *Server) UpdateQuestion(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req quizdomain.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	question, err := s.quizsvc.UpdateQuestion(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), c.Param("questionId"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (s *Server) DeleteQuestion(c *gin.Context) {
	actorID, ok := currentUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.quizsvc.DeleteQuestion(c.Request.Context(), actorID, c.Param("id"), c.Param("quizId"), c.Param("questionId")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
