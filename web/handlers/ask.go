package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ZanRoberto/Tecnaria-V3-sub000/composer"
	"github.com/ZanRoberto/Tecnaria-V3-sub000/web/format"
)

// AnswerService is the composer as seen by the HTTP layer.
type AnswerService interface {
	Answer(ctx context.Context, question string) composer.Answer
}

type AskRequest struct {
	Domanda string `json:"domanda"`
}

type AskResponse struct {
	Risposta string `json:"risposta"`
	HTML     string `json:"html,omitempty"`
	Lingua   string `json:"lingua,omitempty"`
	Fonte    string `json:"fonte,omitempty"`
	Ms       int64  `json:"ms"`
}

type AskHandler struct {
	svc    AnswerService
	logger *zap.Logger
}

func NewAskHandler(svc AnswerService, logger *zap.Logger) *AskHandler {
	return &AskHandler{svc: svc, logger: logger}
}

// Ask answers one question: {"domanda": "..."} in, {"risposta": "..."} out.
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Richiesta non valida.")
		return
	}
	if strings.TrimSpace(req.Domanda) == "" {
		respondWithClientError(c, http.StatusBadRequest, "La domanda non può essere vuota.")
		return
	}

	start := time.Now()
	answer := h.svc.Answer(c.Request.Context(), req.Domanda)

	h.logger.Info("Question answered",
		zap.String("source", answer.Source),
		zap.String("origin", answer.Origin),
		zap.String("lang", answer.Lang),
		zap.Int("score", answer.Score),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusOK, AskResponse{
		Risposta: answer.Text,
		HTML:     format.ToHTML(answer.Text),
		Lingua:   answer.Lang,
		Fonte:    answer.Source,
		Ms:       time.Since(start).Milliseconds(),
	})
}
