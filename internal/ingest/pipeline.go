package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mdelehaye/cvchat/pkg/provider"
	"github.com/mdelehaye/cvchat/pkg/types"
)

// Pipeline splits, embeds, and stores CV documents.
type Pipeline struct {
	splitter   *Splitter
	embedding  provider.EmbeddingProvider
	store      provider.VectorStore
	onProgress func(types.IngestProgress)
}

// Config contains pipeline configuration.
type Config struct {
	ChunkSize    int
	ChunkOverlap int
	Embedding    provider.EmbeddingProvider
	Store        provider.VectorStore
	OnProgress   func(types.IngestProgress) // optional
}

// New creates a new ingest pipeline.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		splitter:   NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		embedding:  cfg.Embedding,
		store:      cfg.Store,
		onProgress: cfg.OnProgress,
	}
}

// IngestDocuments splits the documents into chunks, embeds them in
// batches, and inserts them into the store. Returns the number of
// chunks stored.
func (p *Pipeline) IngestDocuments(ctx context.Context, docs []*types.Document) (int, error) {
	chunks := p.splitAll(docs)
	if len(chunks) == 0 {
		return 0, nil
	}
	p.report("splitting", len(chunks), len(chunks))

	batchSize := p.embedding.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = len(chunks)
	}

	stored := 0
	for i := 0; i < len(chunks); i += batchSize {
		if ctx.Err() != nil {
			return stored, ctx.Err()
		}

		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, c := range batch {
			texts[j] = c.Content
		}

		p.report("embedding", i, len(chunks))
		embeddings, err := p.embedding.Embed(ctx, texts)
		if err != nil {
			return stored, fmt.Errorf("%w: %v", types.ErrEmbeddingFailed, err)
		}

		withEmbeddings := make([]*types.DocumentWithEmbedding, len(batch))
		for j, c := range batch {
			withEmbeddings[j] = &types.DocumentWithEmbedding{
				Document:  c,
				Embedding: embeddings[j],
			}
		}

		p.report("storing", i, len(chunks))
		if err := p.store.Add(ctx, withEmbeddings); err != nil {
			return stored, fmt.Errorf("%w: %v", types.ErrStoreFailed, err)
		}
		stored += len(batch)
	}

	p.report("done", stored, len(chunks))
	slog.Info("ingest complete", "documents", len(docs), "chunks", stored, "store", p.store.Name())

	return stored, nil
}

// IngestPath loads documents from a file or directory and ingests them.
func (p *Pipeline) IngestPath(ctx context.Context, path string) (int, error) {
	docs, err := LoadPath(path)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		slog.Warn("no ingestable files found", "path", path)
		return 0, nil
	}
	return p.IngestDocuments(ctx, docs)
}

// splitAll splits every document into chunk documents, preserving the
// title and source of the parent.
func (p *Pipeline) splitAll(docs []*types.Document) []*types.Document {
	var chunks []*types.Document
	for _, doc := range docs {
		pieces := p.splitter.Split(doc.Content)
		for i, piece := range pieces {
			chunk := &types.Document{
				Title:   doc.Title,
				Content: piece,
				Source:  doc.Source,
				Metadata: map[string]string{
					"chunk": strconv.Itoa(i),
				},
			}
			chunk.ID = chunk.GenerateID()
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (p *Pipeline) report(phase string, done, total int) {
	if p.onProgress != nil {
		p.onProgress(types.IngestProgress{
			Phase:     phase,
			Documents: done,
			Total:     total,
		})
	}
}
