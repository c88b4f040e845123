package openai

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/1code1day/platform-service/internal/domain"
	"github.com/1code1day/platform-service/pkg/logger"
)

func TestGenerate_FallbackWhenProviderUnavailable(t *testing.T) {
	g := NewGenerator("", "", logger.New(logger.ERROR))

	prompt := "implement an LRU cache with O(1) operations and eviction"
	ch := g.Generate(context.Background(), domain.GenerateChallengeRequest{
		Prompt:     prompt,
		Difficulty: "hard",
		Language:   "go",
	})

	assert.True(t, ch.Fallback)
	assert.Equal(t, domain.ChallengeDifficultyHard, ch.Difficulty)
	// заголовок заглушки содержит начало текста запроса
	assert.Contains(t, ch.Title, prompt[:30])
	assert.Contains(t, ch.Description, prompt)
}

func TestGenerate_FallbackTitleTruncation(t *testing.T) {
	g := NewGenerator("", "", logger.New(logger.ERROR))

	ch := g.Generate(context.Background(), domain.GenerateChallengeRequest{Prompt: "fizzbuzz"})
	assert.True(t, ch.Fallback)
	assert.Contains(t, ch.Title, "fizzbuzz")
}

func TestGenerate_FallbackTitleMultibytePrompt(t *testing.T) {
	g := NewGenerator("", "", logger.New(logger.ERROR))

	// кириллический запрос длиннее лимита не должен резаться посреди руны
	prompt := "реализуйте двусвязный список с итератором и удалением за O(1)"
	ch := g.Generate(context.Background(), domain.GenerateChallengeRequest{Prompt: prompt})

	assert.True(t, ch.Fallback)
	assert.True(t, utf8.ValidString(ch.Title))
	assert.Contains(t, ch.Title, string([]rune(prompt)[:30]))
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, domain.ChallengeDifficultyEasy, normalizeDifficulty("easy"))
	assert.Equal(t, domain.ChallengeDifficultyMedium, normalizeDifficulty(""))
	assert.Equal(t, domain.ChallengeDifficultyMedium, normalizeDifficulty("extreme"))
}
