package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/anuragk16/docquery/docstore"
)

type TextReader interface {
	ReadText(path string) (string, error)
}

type Chunker interface {
	Chunk(text string) []string
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type Generator interface {
	Answer(ctx context.Context, question string, passages []string) (string, error)
}

type VectorStore interface {
	Upsert(ctx context.Context, docID string, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, docID string, vector []float32, topK int) ([]docstore.SearchResult, error)
}

type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Pipeline runs the full document query flow: acquire, persist, ingest,
// then answer each question independently. Ingest failures abort the run;
// per-question failures are absorbed into placeholder answers so one bad
// question cannot sink the batch.
type Pipeline struct {
	log       *slog.Logger
	fetcher   DocumentFetcher
	files     *FileManager
	reader    TextReader
	chunker   Chunker
	embedder  Embedder
	store     VectorStore
	generator Generator
	topK      int
}

func NewPipeline(
	log *slog.Logger,
	fetcher DocumentFetcher,
	files *FileManager,
	reader TextReader,
	chunker Chunker,
	embedder Embedder,
	store VectorStore,
	generator Generator,
	topK int,
) *Pipeline {
	return &Pipeline{
		log:       log,
		fetcher:   fetcher,
		files:     files,
		reader:    reader,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      topK,
	}
}

// Run answers each question against the document at source. The returned
// slice always has one entry per question, in input order.
func (p *Pipeline) Run(ctx context.Context, source string, questions []string) ([]string, *RunMetrics, error) {
	metrics := &RunMetrics{}
	start := time.Now()

	p.log.Info("downloading document", "source", source)
	downloadStart := time.Now()
	content, err := p.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, metrics, err
	}
	metrics.Download = time.Since(downloadStart)

	saveStart := time.Now()
	saved, err := p.files.Save(content, sourceFilename(source))
	if err != nil {
		return nil, metrics, err
	}
	defer p.files.Cleanup(saved)
	metrics.Save = time.Since(saveStart)

	processStart := time.Now()
	docID := DocumentID(sourceFilename(source), "")
	if err := p.ingest(ctx, docID, saved); err != nil {
		return nil, metrics, err
	}
	metrics.Process = time.Since(processStart)

	answers := make([]string, len(questions))
	for i, question := range questions {
		questionStart := time.Now()
		answer, err := p.answerOne(ctx, docID, question)
		if err != nil {
			p.log.Error("question failed", "index", i, "error", err)
			answer = fmt.Sprintf("Error processing question: %s", err)
		}
		answers[i] = answer
		metrics.AddQuestionTime(time.Since(questionStart))
	}

	metrics.Total = time.Since(start)
	p.log.Info("run complete", "doc_id", docID, "metrics", metrics)

	return answers, metrics, nil
}

// RunUpload is the legacy single-question path over an uploaded payload.
// It returns the answer plus the advisory likely yes/no classification.
func (p *Pipeline) RunUpload(ctx context.Context, content []byte, filename, question string) (answer, evaluation string, err error) {
	saved, err := p.files.Save(content, filename)
	if err != nil {
		return "", "", err
	}
	defer p.files.Cleanup(saved)

	docID := DocumentID(filename, "")
	if err := p.ingest(ctx, docID, saved); err != nil {
		return "", "", err
	}

	answer, err = p.answerOne(ctx, docID, question)
	if err != nil {
		return "", "", err
	}

	return answer, EvaluateResponse(question, answer), nil
}

// ingest extracts, chunks, embeds and indexes the saved document. Any
// failure aborts the whole run; no question is answered against a partially
// ingested document.
func (p *Pipeline) ingest(ctx context.Context, docID, path string) error {
	text, err := p.reader.ReadText(path)
	if err != nil {
		return fmt.Errorf("failed to extract document text: %w", err)
	}

	chunks := p.chunker.Chunk(text)
	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	if err := p.store.Upsert(ctx, docID, chunks, vectors); err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}

	p.log.Info("document ingested", "doc_id", docID, "chunks", len(chunks))
	return nil
}

func (p *Pipeline) answerOne(ctx context.Context, docID, question string) (string, error) {
	vectors, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return "", err
	}
	if len(vectors) != 1 {
		return "", fmt.Errorf("expected one query embedding, got %d", len(vectors))
	}

	// Retrieval degrades to an empty context set instead of failing the
	// question; the generator still gets a chance to answer.
	passages := make([]string, 0, p.topK)
	results, err := p.store.Search(ctx, docID, vectors[0], p.topK)
	if err != nil {
		p.log.Warn("retrieval failed, answering without context", "doc_id", docID, "error", err)
	} else {
		for _, r := range results {
			passages = append(passages, r.Text)
		}
	}

	answer, err := p.generator.Answer(ctx, question, passages)
	if err != nil {
		return "", err
	}

	answer = normalizeAnswer(answer)
	accuracy := EvaluateAccuracy(question, answer)
	p.log.Info("question answered",
		"doc_id", docID,
		"accuracy", accuracy.Score,
		"rating", accuracy.Rating,
	)

	return answer, nil
}

// normalizeAnswer trims the answer and strips the model's stock preamble
// when it leads the text.
func normalizeAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	for _, preamble := range []string{"Based on the document, ", "Based on the document,"} {
		if strings.HasPrefix(answer, preamble) {
			answer = strings.TrimSpace(strings.TrimPrefix(answer, preamble))
			break
		}
	}
	return answer
}

// sourceFilename extracts a best-effort filename from the source URL so the
// saved copy keeps its extension. Unparseable sources default to pdf.
func sourceFilename(source string) string {
	u, err := url.Parse(source)
	if err != nil || path.Ext(u.Path) == "" {
		return "document.pdf"
	}
	return path.Base(u.Path)
}
