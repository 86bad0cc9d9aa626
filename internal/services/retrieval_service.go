package services

import (
	"context"

	"github.com/takrit/linerelay/internal/providers/embed"
	mongorepo "github.com/takrit/linerelay/internal/repositories/mongo"
	"github.com/takrit/linerelay/internal/utils"
)

// RetrievalService turns free text into ranked knowledge-base passages:
// embed the query, then run vector search over the documents collection.
type RetrievalService interface {
	// TopPassages returns up to k passages relevant to query. An empty
	// result means the knowledge base has nothing on the topic; it is not
	// an error.
	TopPassages(ctx context.Context, query string, k int) ([]string, error)
}

type retrievalService struct {
	embedder  embed.Embedder
	documents mongorepo.DocumentRepository
}

func NewRetrievalService(embedder embed.Embedder, documents mongorepo.DocumentRepository) RetrievalService {
	return &retrievalService{embedder: embedder, documents: documents}
}

func (s *retrievalService) TopPassages(ctx context.Context, query string, k int) ([]string, error) {
	const op = "RetrievalService.TopPassages"

	if query == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "query is required", nil)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to embed query", err)
	}

	hits, err := s.documents.VectorSearch(ctx, vector, k)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "vector search failed", err)
	}

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.Text != "" {
			out = append(out, h.Text)
		}
	}
	return out, nil
}
