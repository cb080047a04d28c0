package reversal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/access"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/session"
)

type fakeRemote struct {
	docs     map[string]model.TransactionDocument
	result   model.ReversalResult
	err      error
	reversed []string
}

func (f *fakeRemote) FetchTransaction(ctx context.Context, code string) (model.TransactionDocument, error) {
	doc, ok := f.docs[code]
	if !ok {
		return model.TransactionDocument{}, errors.New("not found")
	}
	return doc, nil
}

func (f *fakeRemote) ReverseTransaction(ctx context.Context, code string) (model.ReversalResult, error) {
	if f.err != nil {
		return model.ReversalResult{}, f.err
	}
	f.reversed = append(f.reversed, code)
	return f.result, nil
}

var locations = []string{"Accra", "Kumasi"}

func sale(code string, status model.DocumentStatus) model.TransactionDocument {
	return model.TransactionDocument{Code: code, Kind: model.KindSale, Location: "Accra", Status: status}
}

func ctxWith(g access.Grant) context.Context {
	return session.WithContext(context.Background(), session.New("u1", "Ama", "tok", g, locations))
}

func TestReverse(t *testing.T) {
	r := &fakeRemote{
		docs:   map[string]model.TransactionDocument{"SAL-2025-01-0001": sale("SAL-2025-01-0001", model.StatusActive)},
		result: model.ReversalResult{Success: true},
	}
	svc := NewService(r)

	doc, err := svc.Reverse(ctxWith(access.AdminGrant(locations)), "SAL-2025-01-0001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusReversed, doc.Status)
	assert.Equal(t, []string{"SAL-2025-01-0001"}, r.reversed)
}

func TestReverse_AlreadyReversedNeverCallsRemote(t *testing.T) {
	r := &fakeRemote{result: model.ReversalResult{Success: true}}
	svc := NewService(r)

	_, err := svc.ReverseDocument(ctxWith(access.AdminGrant(locations)), sale("SAL-1", model.StatusReversed))
	assert.ErrorIs(t, err, ErrAlreadyReversed)
	assert.Empty(t, r.reversed)
}

func TestReverse_NotPermitted(t *testing.T) {
	r := &fakeRemote{result: model.ReversalResult{Success: true}}
	svc := NewService(r)

	g := access.NewGrant([]access.Permission{
		{Module: access.ModuleSales, Capability: access.CapAccess},
		{Module: access.ModuleSales, Capability: access.CapReverse},
	}, []string{"Kumasi"})

	_, err := svc.ReverseDocument(ctxWith(g), sale("SAL-1", model.StatusActive))
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Empty(t, r.reversed)
}

func TestReverse_Refused(t *testing.T) {
	r := &fakeRemote{result: model.ReversalResult{Success: false, Message: "period closed"}}
	svc := NewService(r)
	in := sale("SAL-1", model.StatusActive)

	out, err := svc.ReverseDocument(ctxWith(access.AdminGrant(locations)), in)
	var refused *RefusedError
	require.ErrorAs(t, err, &refused)
	assert.Equal(t, "period closed", refused.Message)
	assert.Equal(t, "reversal of SAL-1 refused: period closed", err.Error())
	assert.Equal(t, model.StatusActive, out.Status)
}

func TestReverse_RemoteFailure(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(&fakeRemote{err: boom})

	_, err := svc.ReverseDocument(ctxWith(access.AdminGrant(locations)), sale("SAL-1", model.StatusActive))
	assert.ErrorIs(t, err, boom)
}

func TestReverse_NoSession(t *testing.T) {
	svc := NewService(&fakeRemote{})
	_, err := svc.ReverseDocument(context.Background(), sale("SAL-1", model.StatusActive))
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestReverse_FetchFailure(t *testing.T) {
	svc := NewService(&fakeRemote{docs: map[string]model.TransactionDocument{}})
	_, err := svc.Reverse(ctxWith(access.AdminGrant(locations)), "SAL-9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching SAL-9")
}

func TestOffer(t *testing.T) {
	ctx := ctxWith(access.AdminGrant(locations))
	assert.True(t, Offer(ctx, sale("SAL-1", model.StatusActive)))
	assert.False(t, Offer(ctx, sale("SAL-1", model.StatusReversed)))
	assert.False(t, Offer(context.Background(), sale("SAL-1", model.StatusActive)))
}
