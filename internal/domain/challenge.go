package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeDifficulty сложность задачи
type ChallengeDifficulty string

const (
	ChallengeDifficultyEasy   ChallengeDifficulty = "easy"
	ChallengeDifficultyMedium ChallengeDifficulty = "medium"
	ChallengeDifficultyHard   ChallengeDifficulty = "hard"
)

// Challenge ежедневная задача по программированию
type Challenge struct {
	ID            uuid.UUID           `db:"id" json:"id"`
	Title         string              `db:"title" json:"title"`
	Description   string              `db:"description" json:"description"`
	Difficulty    ChallengeDifficulty `db:"difficulty" json:"difficulty"`
	Language      string              `db:"language" json:"language"`
	StarterCode   string              `db:"starter_code" json:"starter_code"`
	ChallengeDate time.Time           `db:"challenge_date" json:"challenge_date"`
	// Fallback выставляется, когда контент сгенерирован детерминированной
	// заглушкой, а не LLM провайдером
	Fallback  bool      `db:"fallback" json:"fallback"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GenerateChallengeRequest запрос на генерацию задачи
type GenerateChallengeRequest struct {
	Prompt     string `json:"prompt" validate:"required"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Language   string `json:"language" validate:"omitempty"`
}
