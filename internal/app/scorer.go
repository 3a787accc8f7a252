package app

import "quizzer-session-service/internal/domain"

// Score grades an attempt. questions and answers are index-aligned and of
// equal length (the session invariant guarantees this); a nil answer is
// scored as incorrect rather than treated as a validation error. Matching
// is exact: case-sensitive, no trimming.
func Score(questions []domain.Question, answers []*string) []domain.ScoredAnswer {
	results := make([]domain.ScoredAnswer, len(questions))
	for i, question := range questions {
		answer := answers[i]
		results[i] = domain.ScoredAnswer{
			QuestionText:  question.Text,
			CorrectAnswer: question.CorrectAnswer,
			UserAnswer:    answer,
			IsCorrect:     answer != nil && *answer == question.CorrectAnswer,
		}
	}
	return results
}

// CorrectCount returns the aggregate score over a scored attempt.
func CorrectCount(results []domain.ScoredAnswer) int {
	count := 0
	for _, result := range results {
		if result.IsCorrect {
			count++
		}
	}
	return count
}
