// Package rag drives one conversational turn end to end: attachment
// detection, ingestion, retrieval, prompt assembly and token streaming.
package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"travel-rag/internal/llmservice"
	"travel-rag/internal/models"
)

// ErrProtocolViolation marks an unexpected payload shape arriving from the
// generation stream.
var ErrProtocolViolation = errors.New("unexpected fragment type from generation stream")

// turnState names where the turn currently is, for logging.
type turnState string

const (
	stateDetecting  turnState = "detecting_attachments"
	stateIngesting  turnState = "ingesting"
	stateRetrieving turnState = "retrieving"
	stateAssembling turnState = "prompt_assembly"
	stateStreaming  turnState = "streaming"
	stateDone       turnState = "done"
	stateFailed     turnState = "failed"
)

// Ingestor is the ingestion collaborator. It always returns a result,
// never an error.
type Ingestor interface {
	Ingest(ctx context.Context, req models.IngestionRequest) models.IngestionResult
}

// Retriever is the retrieval collaborator.
type Retriever interface {
	Retrieve(ctx context.Context, req models.RetrievalRequest) ([]models.ScoredDocument, error)
}

// Emit delivers the current response text to the caller. Every call
// carries the full response so far, not a delta, so downstream buffering
// cannot reorder partial output.
type Emit func(response string) error

// Orchestrator runs conversational turns against injected collaborators.
type Orchestrator struct {
	ingestor  Ingestor
	retriever Retriever
	generator llmservice.Generator
	persona   string
}

// NewOrchestrator wires the turn collaborators.
func NewOrchestrator(ingestor Ingestor, retriever Retriever, generator llmservice.Generator, persona string) *Orchestrator {
	return &Orchestrator{
		ingestor:  ingestor,
		retriever: retriever,
		generator: generator,
		persona:   persona,
	}
}

// RunTurn drives one turn to completion. Any failure inside the turn is
// converted into a single explanatory message for the caller; the raw
// error is returned for logging but never emitted.
func (o *Orchestrator) RunTurn(ctx context.Context, turn models.ConversationTurn, emit Emit) error {
	if err := o.runTurn(ctx, turn, emit); err != nil {
		log.Error().Err(err).Str("state", string(stateFailed)).Str("userId", turn.UserID).Msg("Turn failed")
		if emitErr := emit(models.TurnErrorPrefix + err.Error()); emitErr != nil {
			return emitErr
		}
		return err
	}
	return nil
}

func (o *Orchestrator) runTurn(ctx context.Context, turn models.ConversationTurn, emit Emit) error {
	o.logState(stateDetecting, turn)
	query := strings.TrimSpace(turn.Message)
	urls := ExtractURLs(query)

	if len(turn.Files) > 0 || len(urls) > 0 {
		o.logState(stateIngesting, turn)

		// Tell the caller before the upload starts: a multi-second
		// ingestion must not look like a hang.
		progress := models.UploadStartMessage
		if err := emit(progress); err != nil {
			return err
		}

		result := o.ingestor.Ingest(ctx, models.IngestionRequest{
			UserID: turn.UserID,
			Files:  turn.Files,
			URLs:   urls,
		})

		// The coordinator has already waited out the consistency delay
		// on success. A failed upload gets its own message and the
		// textual question still gets answered.
		if result.OK() {
			progress += models.UploadDoneMessage
		} else {
			log.Warn().Interface("failures", result.Failures).Msg("Upload finished with failures")
			progress += models.UploadFailedMessage
		}
		if err := emit(progress); err != nil {
			return err
		}
	}

	if query == "" {
		o.logState(stateDone, turn)
		return emit(models.GreetingMessage)
	}

	o.logState(stateRetrieving, turn)
	docs, err := o.retriever.Retrieve(ctx, models.RetrievalRequest{
		Query:   query,
		UserID:  turn.UserID,
		Sources: turn.Sources,
	})
	if err != nil {
		return err
	}

	o.logState(stateAssembling, turn)
	prompt := o.buildPrompt(docs, query)

	o.logState(stateStreaming, turn)
	var answer strings.Builder
	err = o.generator.Stream(ctx, prompt, func(fragment any) error {
		switch f := fragment.(type) {
		case string:
			answer.WriteString(f)
		case models.MessageFragment:
			answer.WriteString(f.Content)
		default:
			return fmt.Errorf("%w: %T", ErrProtocolViolation, fragment)
		}
		return emit(answer.String())
	})
	if err != nil {
		return err
	}

	o.logState(stateDone, turn)

	// Some transports deliver one JSON response object instead of plain
	// deltas; surface its nested message when that happens. A parse
	// failure is the normal plain-text path, not an error.
	if content, ok := decodeStructured(answer.String()); ok {
		return emit(content)
	}
	return nil
}

// buildPrompt joins the non-empty document texts and the question into the
// generation prompt.
func (o *Orchestrator) buildPrompt(docs []models.ScoredDocument, question string) string {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc.Text != "" {
			texts = append(texts, doc.Text)
		}
	}
	contextText := strings.Join(texts, models.ContextSeparator)
	return fmt.Sprintf(models.RAGPromptTemplate, o.persona, contextText, question)
}

// decodeStructured speculatively parses an accumulated stream as one chat
// completion object, returning its nested message content when it is one.
func decodeStructured(s string) (string, bool) {
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(s), &resp); err != nil {
		return "", false
	}
	if len(resp.Choices) == 0 {
		return "", false
	}
	return resp.Choices[0].Message.Content, true
}

func (o *Orchestrator) logState(state turnState, turn models.ConversationTurn) {
	log.Debug().Str("state", string(state)).Str("userId", turn.UserID).Msg("Turn state")
}
