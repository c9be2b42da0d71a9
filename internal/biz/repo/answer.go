package repo

import "context"

// AnswerRepo asks the question-answering backend for an answer to a cleaned
// user question.
type AnswerRepo interface {
	Ask(ctx context.Context, question string) (string, error)
}

// ReindexRepo triggers a rebuild of the answer backend's document index.
type ReindexRepo interface {
	TriggerReindex(ctx context.Context, indexName string) error
}
