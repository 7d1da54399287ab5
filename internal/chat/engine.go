// Package chat is the RAG chat engine (C12): it turns a user message into
// a retrieval-grounded answer, keeping per-session history with TTL/LRU
// eviction.
//
// Grounded on its internal/rag/service/service.go Retrieve (embed
// query, fetch candidates, optional rerank, assemble) and root
// stream_agents.go's SSE write-loop idiom for the streaming path.
package chat

import (
	"context"
	"fmt"
	"time"

	"archon/internal/llmclient"
	"archon/internal/vectorindex"
)

// VectorSearcher is the subset of vectorindex.Index the engine needs for
// its semantic-only retrieval path.
type VectorSearcher interface {
	Search(ctx context.Context, queryVector []float32, k int, filters vectorindex.SearchFilters, opts vectorindex.SearchOptions) ([]vectorindex.Result, error)
}

// QueryEmbedder embeds the user's message for semantic search.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces the assistant's reply from an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateStream(ctx context.Context, prompt string, onToken llmclient.OnToken) error
}

// RerankProvider scores candidate passages against a query. It never
// returns an error: a failed/unparsable rerank call degrades to an empty
// map (§4.12) and retrieval order is preserved.
type RerankProvider interface {
	Rerank(ctx context.Context, host, model, query string, passages []llmclient.Passage) map[string]float64
}

// Config tunes retrieval, reranking, and prompt assembly.
type Config struct {
	DefaultContextLimit int
	Lambda              float64 // MMR λ, default 0.68
	CandidateMultiplier int     // default 18
	MinScore            float64 // default 0.25

	RerankEnabled bool
	RerankHost    string
	RerankModel   string
	RerankTopN    int // candidates sent to the reranker
	RerankTopKOut int // kept after reranking

	Locale string
}

// Context is one retrieved passage surfaced to the model and the caller.
type Context struct {
	DocumentID int64
	FilePath   string
	FileName   string
	Snippet    string
	Score      float64
}

// Request is one chat turn.
type Request struct {
	SessionID      string
	Message        string
	UseRAG         bool
	ContextLimit   int
	IncludeHistory bool
}

// Response is the non-streaming result of Chat.
type Response struct {
	Answer   string
	Contexts []Context
	Refused  bool
}

// Engine wires retrieval, reranking, and generation around a session
// store. New takes its collaborators as positional arguments plus a Config.
type Engine struct {
	vector   VectorSearcher
	embed    QueryEmbedder
	gen      Generator
	rerank   RerankProvider
	sessions *SessionStore
	cfg      Config
}

// New builds an Engine. vector/embed may be nil when semantic search is not
// configured; Chat then always behaves as if UseRAG were false.
func New(vector VectorSearcher, embed QueryEmbedder, gen Generator, rerank RerankProvider, sessions *SessionStore, cfg Config) *Engine {
	if cfg.Lambda == 0 {
		cfg.Lambda = 0.68
	}
	if cfg.CandidateMultiplier == 0 {
		cfg.CandidateMultiplier = 18
	}
	if cfg.MinScore == 0 {
		cfg.MinScore = 0.25
	}
	if cfg.DefaultContextLimit == 0 {
		cfg.DefaultContextLimit = 5
	}
	return &Engine{vector: vector, embed: embed, gen: gen, rerank: rerank, sessions: sessions, cfg: cfg}
}

// MessageCount reports how many turns a session has accumulated, for
// callers (httpapi) that report it alongside a Chat/ChatStream response.
func (e *Engine) MessageCount(sessionID string) int {
	return len(e.sessions.Get(sessionID).History)
}

// RAGEnabled reports whether the engine has a configured semantic path;
// callers surface this as the response's rag_enabled flag even on turns
// where UseRAG was false or retrieval was skipped.
func (e *Engine) RAGEnabled() bool {
	return e.vector != nil && e.embed != nil
}

// Chat performs one non-streaming turn per §4.12.
func (e *Engine) Chat(ctx context.Context, req Request) (Response, error) {
	session := e.sessions.Get(req.SessionID)
	e.sessions.Append(session.ID, Turn{Role: RoleUser, Content: req.Message, Timestamp: time.Now()})

	contexts, refused, err := e.retrieveContexts(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if refused {
		answer := refusalSentence(e.cfg.Locale)
		e.sessions.Append(session.ID, Turn{Role: RoleAssistant, Content: answer, Timestamp: time.Now()})
		return Response{Answer: answer, Refused: true}, nil
	}

	prompt := e.assemblePrompt(session, req, contexts)
	answer, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		return Response{}, fmt.Errorf("chat: generate: %w", err)
	}

	e.sessions.Append(session.ID, Turn{Role: RoleAssistant, Content: answer, Timestamp: time.Now()})
	return Response{Answer: answer, Contexts: contexts}, nil
}

// ChatStream performs one streaming turn, invoking onToken for each chunk
// of the answer as it arrives and returning the final assembled Response.
func (e *Engine) ChatStream(ctx context.Context, req Request, onToken llmclient.OnToken) (Response, error) {
	session := e.sessions.Get(req.SessionID)
	e.sessions.Append(session.ID, Turn{Role: RoleUser, Content: req.Message, Timestamp: time.Now()})

	contexts, refused, err := e.retrieveContexts(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if refused {
		answer := refusalSentence(e.cfg.Locale)
		if err := onToken(answer); err != nil {
			return Response{}, err
		}
		e.sessions.Append(session.ID, Turn{Role: RoleAssistant, Content: answer, Timestamp: time.Now()})
		return Response{Answer: answer, Refused: true}, nil
	}

	prompt := e.assemblePrompt(session, req, contexts)

	var full string
	err = e.gen.GenerateStream(ctx, prompt, func(tok string) error {
		full += tok
		return onToken(tok)
	})
	if err != nil {
		return Response{}, fmt.Errorf("chat: generate stream: %w", err)
	}

	e.sessions.Append(session.ID, Turn{Role: RoleAssistant, Content: full, Timestamp: time.Now()})
	return Response{Answer: full, Contexts: contexts}, nil
}

func (e *Engine) assemblePrompt(session *Session, req Request, contexts []Context) string {
	history := session.History
	if !req.IncludeHistory {
		history = nil
	}
	return buildPrompt(e.cfg.Locale, history, contexts, req.Message)
}

// retrieveContexts runs §4.12 steps 2-3: embed, MMR-search, optional
// rerank. refused is true only when RAG was requested and zero contexts
// were found.
func (e *Engine) retrieveContexts(ctx context.Context, req Request) (contexts []Context, refused bool, err error) {
	if !req.UseRAG || e.vector == nil || e.embed == nil {
		return nil, false, nil
	}

	limit := req.ContextLimit
	if limit <= 0 {
		limit = e.cfg.DefaultContextLimit
	}
	searchLimit := limit
	if e.cfg.RerankEnabled && e.cfg.RerankTopN > searchLimit {
		searchLimit = e.cfg.RerankTopN
	}

	vec, err := e.embed.EmbedQuery(ctx, req.Message)
	if err != nil {
		return nil, false, fmt.Errorf("chat: embed query: %w", err)
	}

	results, err := e.vector.Search(ctx, vec, searchLimit, vectorindex.SearchFilters{}, vectorindex.SearchOptions{
		UseMMR:              true,
		Lambda:              e.cfg.Lambda,
		CandidateMultiplier: e.cfg.CandidateMultiplier,
		MinScore:            e.cfg.MinScore,
	})
	if err != nil {
		return nil, false, fmt.Errorf("chat: vector search: %w", err)
	}

	for _, r := range results {
		contexts = append(contexts, Context{
			DocumentID: r.DocumentID,
			FilePath:   r.FilePath,
			FileName:   r.FileName,
			Snippet:    r.ChunkText,
			Score:      r.Score,
		})
	}
	if len(contexts) == 0 {
		return nil, true, nil
	}

	if e.cfg.RerankEnabled && len(contexts) >= 2 {
		contexts = e.applyRerank(ctx, req.Message, contexts)
	}
	return contexts, false, nil
}

// applyRerank sends up to 900 chars of each context to the reranker and
// re-sorts by returned score, preserving pre-rerank order for any id the
// reranker didn't score (§4.12 step 3).
func (e *Engine) applyRerank(ctx context.Context, query string, contexts []Context) []Context {
	passages := make([]llmclient.Passage, len(contexts))
	for i, c := range contexts {
		text := c.Snippet
		if len(text) > 900 {
			text = text[:900]
		}
		passages[i] = llmclient.Passage{ID: fmt.Sprintf("%d", c.DocumentID), Text: text}
	}

	scores := e.rerank.Rerank(ctx, e.cfg.RerankHost, e.cfg.RerankModel, query, passages)
	reordered := rerankOrder(contexts, scores)

	topK := e.cfg.RerankTopKOut
	if topK > 0 && topK < len(reordered) {
		reordered = reordered[:topK]
	}
	return reordered
}
