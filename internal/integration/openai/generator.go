package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

const (
	generationTimeout = 30 * time.Second
	promptTitleLimit  = 30
)

const systemPrompt = `You generate daily coding challenges. Respond with a single JSON object:
{"title": "...", "description": "...", "starter_code": "..."}
No markdown, no commentary.`

// Generator генерирует контент ежедневных задач через LLM провайдера.
// При недоступности провайдера возвращается детерминированная заглушка,
// генерация никогда не завершается ошибкой.
type Generator struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewGenerator создает генератор задач. При пустом apiKey генератор
// работает только на заглушках.
func NewGenerator(apiKey, model string, log *logger.Logger) *Generator {
	if model == "" {
		model = openai.GPT4oMini
	}
	g := &Generator{model: model, log: log}
	if apiKey != "" {
		g.client = openai.NewClient(apiKey)
	}
	return g
}

type generatedContent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StarterCode string `json:"starter_code"`
}

// Generate возвращает контент задачи по запросу администратора.
// Fallback в результате выставлен, если контент собран заглушкой.
func (g *Generator) Generate(ctx context.Context, req domain.GenerateChallengeRequest) domain.Challenge {
	if g.client == nil {
		g.log.Warnw("LLM provider not configured, using fallback challenge")
		return g.fallback(req)
	}

	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	userPrompt := fmt.Sprintf("Topic: %s\nDifficulty: %s\nLanguage: %s", req.Prompt, req.Difficulty, req.Language)
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		g.log.Errorw("LLM challenge generation failed, using fallback", "error", err)
		return g.fallback(req)
	}
	if len(resp.Choices) == 0 {
		g.log.Warnw("LLM returned no choices, using fallback")
		return g.fallback(req)
	}

	var content generatedContent
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &content); err != nil || content.Title == "" {
		g.log.Warnw("LLM returned unparseable content, using fallback", "error", err)
		return g.fallback(req)
	}

	return domain.Challenge{
		Title:       content.Title,
		Description: content.Description,
		Difficulty:  normalizeDifficulty(req.Difficulty),
		Language:    req.Language,
		StarterCode: content.StarterCode,
		Fallback:    false,
	}
}

// fallback собирает детерминированную задачу из текста запроса
func (g *Generator) fallback(req domain.GenerateChallengeRequest) domain.Challenge {
	topic := strings.TrimSpace(req.Prompt)
	title := topic
	// Обрезаем по рунам, чтобы не разрезать многобайтовый символ
	if runes := []rune(title); len(runes) > promptTitleLimit {
		title = string(runes[:promptTitleLimit])
	}
	return domain.Challenge{
		Title:       "Challenge: " + title,
		Description: fmt.Sprintf("Write a program that solves the following problem: %s", topic),
		Difficulty:  normalizeDifficulty(req.Difficulty),
		Language:    req.Language,
		StarterCode: "",
		Fallback:    true,
	}
}

func normalizeDifficulty(d string) domain.ChallengeDifficulty {
	switch domain.ChallengeDifficulty(d) {
	case domain.ChallengeDifficultyEasy, domain.ChallengeDifficultyMedium, domain.ChallengeDifficultyHard:
		return domain.ChallengeDifficulty(d)
	default:
		return domain.ChallengeDifficultyMedium
	}
}
