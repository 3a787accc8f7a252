package app_test

import (
	"testing"

	"quizzer-session-service/internal/app"
	"quizzer-session-service/internal/domain"
)

func TestScore(t *testing.T) {
	questions := []domain.Question{
		{Text: "2+2?", Choices: []string{"3", "4"}, CorrectAnswer: "4"},
	}

	right := "4"
	results := app.Score(questions, []*string{&right})
	if !results[0].IsCorrect || results[0].UserAnswer == nil || *results[0].UserAnswer != "4" {
		t.Fatalf("expected correct result, got %+v", results[0])
	}

	wrong := "3"
	results = app.Score(questions, []*string{&wrong})
	if results[0].IsCorrect {
		t.Fatalf("expected wrong answer scored incorrect, got %+v", results[0])
	}

	results = app.Score(questions, []*string{nil})
	if results[0].IsCorrect || results[0].UserAnswer != nil {
		t.Fatalf("expected missing answer never correct, got %+v", results[0])
	}
	if results[0].QuestionText != "2+2?" || results[0].CorrectAnswer != "4" {
		t.Fatalf("expected question text and key carried through, got %+v", results[0])
	}
}

func TestScoreIsExactMatch(t *testing.T) {
	questions := []domain.Question{
		{Text: "Capital of France?", Choices: []string{"Paris", "paris"}, CorrectAnswer: "Paris"},
	}

	lower := "paris"
	results := app.Score(questions, []*string{&lower})
	if results[0].IsCorrect {
		t.Fatalf("matching must be case-sensitive, got %+v", results[0])
	}

	padded := "Paris "
	results = app.Score(questions, []*string{&padded})
	if results[0].IsCorrect {
		t.Fatalf("matching must not trim, got %+v", results[0])
	}
}

func TestCorrectCount(t *testing.T) {
	results := []domain.ScoredAnswer{
		{IsCorrect: true},
		{IsCorrect: false},
		{IsCorrect: true},
	}
	if got := app.CorrectCount(results); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}
