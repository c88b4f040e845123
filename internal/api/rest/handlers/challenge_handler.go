package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/internal/repository"
	"github.com/1code1day/platform-service/internal/service"
	"github.com/1code1day/platform-service/pkg/logger"
	"github.com/1code1day/platform-service/pkg/req"
	"github.com/1code1day/platform-service/pkg/res"
)

// ChallengeHandler ежедневные задачи
type ChallengeHandler struct {
	challenges service.ChallengeService
	log        *logger.Logger
}

// NewChallengeHandler создает обработчик задач
func NewChallengeHandler(challenges service.ChallengeService, log *logger.Logger) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges, log: log}
}

// Generate генерирует и сохраняет задачу (административная операция).
// Необязательный query-параметр date (YYYY-MM-DD) задает дату публикации.
func (h *ChallengeHandler) Generate(c *gin.Context) {
	body, err := req.HandleBody[domain.GenerateChallengeRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	var date time.Time
	if raw := c.Query("date"); raw != "" {
		date, err = time.Parse("2006-01-02", raw)
		if err != nil {
			res.JsonResponse(c.Writer, res.Err("Invalid date, expected YYYY-MM-DD"), http.StatusBadRequest)
			return
		}
	}

	ch, err := h.challenges.GenerateAndSave(c.Request.Context(), *body, date)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			res.JsonResponse(c.Writer, res.Err("Challenge for this date already exists"), http.StatusConflict)
			return
		}
		h.log.Errorw("Failed to generate challenge", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to generate challenge"), http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, ch)
}

// Today возвращает задачу на сегодня
func (h *ChallengeHandler) Today(c *gin.Context) {
	ch, err := h.challenges.GetToday(c.Request.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			res.JsonResponse(c.Writer, res.Err("No challenge published today"), http.StatusNotFound)
			return
		}
		h.log.Errorw("Failed to get today's challenge", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to get challenge"), http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, ch)
}

// List возвращает последние задачи
func (h *ChallengeHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))

	challenges, err := h.challenges.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Errorw("Failed to list challenges", "error", err)
		res.JsonResponse(c.Writer, res.Err("Failed to list challenges"), http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, challenges)
}
