// Package reversal voids submitted documents. The grant check here only
// decides whether to offer the action; the ledger enforces it again.
package reversal

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/logger"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/session"
)

var (
	// ErrAlreadyReversed is returned for a document in its terminal state.
	ErrAlreadyReversed = errors.New("document is already reversed")

	// ErrNotPermitted is returned when the session grant does not allow
	// reversing the document.
	ErrNotPermitted = errors.New("not permitted to reverse this document")
)

// RefusedError is the ledger declining a reversal it was allowed to
// attempt.
type RefusedError struct {
	Code    string
	Message string
}

func (e *RefusedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("reversal of %s refused", e.Code)
	}
	return fmt.Sprintf("reversal of %s refused: %s", e.Code, e.Message)
}

// Remote is the part of the ledger the service needs.
type Remote interface {
	FetchTransaction(ctx context.Context, code string) (model.TransactionDocument, error)
	ReverseTransaction(ctx context.Context, code string) (model.ReversalResult, error)
}

// Service runs reversals for the session carried by the context.
type Service struct {
	remote Remote
	log    zerolog.Logger
}

// NewService creates a reversal Service.
func NewService(r Remote) *Service {
	return &Service{remote: r, log: logger.WithComponent("reversal")}
}

// Offer reports whether the session in ctx may reverse doc.
func Offer(ctx context.Context, doc model.TransactionDocument) bool {
	s, err := session.FromContext(ctx)
	if err != nil {
		return false
	}
	return access.CanReverse(doc, s.Grant())
}

// Reverse fetches the document by code and reverses it.
func (s *Service) Reverse(ctx context.Context, code string) (model.TransactionDocument, error) {
	doc, err := s.remote.FetchTransaction(ctx, code)
	if err != nil {
		return model.TransactionDocument{}, fmt.Errorf("fetching %s: %w", code, err)
	}
	return s.ReverseDocument(ctx, doc)
}

// ReverseDocument reverses doc and returns it in its terminal state. The
// input is not modified.
func (s *Service) ReverseDocument(ctx context.Context, doc model.TransactionDocument) (model.TransactionDocument, error) {
	sess, err := session.FromContext(ctx)
	if err != nil {
		return doc, err
	}
	log := s.log.With().Str("code", doc.Code).Str("user", sess.UserID()).Logger()

	if doc.Reversed() {
		return doc, fmt.Errorf("%s: %w", doc.Code, ErrAlreadyReversed)
	}
	if !access.CanReverse(doc, sess.Grant()) {
		log.Info().Str("location", doc.Location).Msg("reversal not permitted")
		return doc, fmt.Errorf("%s: %w", doc.Code, ErrNotPermitted)
	}

	res, err := s.remote.ReverseTransaction(ctx, doc.Code)
	if err != nil {
		return doc, fmt.Errorf("reversing %s: %w", doc.Code, err)
	}
	if !res.Success {
		log.Info().Str("message", res.Message).Msg("reversal refused")
		return doc, &RefusedError{Code: doc.Code, Message: res.Message}
	}

	out := doc
	out.Status = model.StatusReversed
	log.Info().Str("kind", string(doc.Kind)).Msg("document reversed")
	return out, nil
}
