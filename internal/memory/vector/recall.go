package vector

import (
	"context"

	"github.com/SRdeMora/quimera/internal/memory"
	"github.com/SRdeMora/quimera/internal/memory/embedder"
	"github.com/SRdeMora/quimera/internal/types"
)

// Recall is the semantic recall adapter: it owns the embed-query-filter
// pipeline and the dedup policy against the current recency window. The
// similarity floor and result cap live in the store query; dedup is applied
// here because only the caller knows the recency window of the request.
type Recall struct {
	store    Store
	embedder embedder.Embedder
	topK     int
	minSim   float64
}

// NewRecall creates a semantic recall adapter over a store and an embedder.
func NewRecall(store Store, emb embedder.Embedder, cfg Config) *Recall {
	cfg.ApplyDefaults()
	return &Recall{
		store:    store,
		embedder: emb,
		topK:     cfg.TopK,
		minSim:   cfg.MinSimilarity,
	}
}

// Query embeds the input text and returns the ranked semantic hits for the
// session, excluding any hit whose turn already appears in the recency
// window (redundant context).
func (r *Recall) Query(ctx context.Context, sessionID types.ID, text string, recencyWindow []memory.Turn) ([]memory.MemoryRecord, error) {
	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return nil, memory.NewEmbeddingError("failed to embed query text", err)
	}

	results, err := r.store.Query(ctx, Query{
		Embedding:     embedding,
		SessionID:     sessionID,
		TopK:          r.topK,
		MinSimilarity: r.minSim,
	})
	if err != nil {
		return nil, err
	}

	records := make([]memory.MemoryRecord, 0, len(results))
	for _, res := range results {
		records = append(records, memory.MemoryRecord{
			VectorID:   res.Record.ID,
			SessionID:  res.Record.SessionID,
			TurnID:     res.Record.TurnID,
			Text:       res.Record.Text,
			Similarity: res.Similarity,
		})
	}

	return FilterWindow(records, recencyWindow), nil
}

// FilterWindow removes hits whose turn already appears in the recency
// window. Such turns are in the prompt verbatim, so recalling them adds
// nothing.
func FilterWindow(records []memory.MemoryRecord, recencyWindow []memory.Turn) []memory.MemoryRecord {
	if len(recencyWindow) == 0 {
		return records
	}

	inWindow := make(map[types.ID]struct{}, len(recencyWindow))
	for _, turn := range recencyWindow {
		inWindow[turn.ID] = struct{}{}
	}

	kept := records[:0]
	for _, rec := range records {
		if _, dup := inWindow[rec.TurnID]; !dup {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Insert embeds and stores one turn in the semantic tier. The vector ID is
// derived from the turn ID, so re-inserting the same turn replaces the
// record instead of duplicating it.
func (r *Recall) Insert(ctx context.Context, turn memory.Turn) error {
	embedding, err := r.embedder.Embed(ctx, turn.Text)
	if err != nil {
		return memory.NewEmbeddingError("failed to embed turn text", err)
	}

	return r.store.Insert(ctx, Record{
		ID:        turn.ID,
		SessionID: turn.SessionID,
		TurnID:    turn.ID,
		Text:      turn.Text,
		Embedding: embedding,
	})
}
