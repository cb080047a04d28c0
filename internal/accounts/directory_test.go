package accounts

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

// fakeRemote implements Remote over a local Chart.
type fakeRemote struct {
	chart   *Chart
	fetches atomic.Int32
	delay   time.Duration
	fail    error
	creates int
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()
	c, err := NewChart(DefaultChart())
	require.NoError(t, err)
	return &fakeRemote{chart: c}
}

func (f *fakeRemote) FetchAccounts(ctx context.Context) ([]model.Account, error) {
	f.fetches.Add(1)
	time.Sleep(f.delay)
	if f.fail != nil {
		return nil, f.fail
	}
	return f.chart.All(), nil
}

func (f *fakeRemote) CreateAccount(ctx context.Context, req CreateRequest) ([]model.Account, error) {
	f.creates++
	if f.fail != nil {
		return nil, f.fail
	}
	return f.chart.Apply(req)
}

func (f *fakeRemote) UpdateAccount(ctx context.Context, code, name, description string) (model.Account, error) {
	if f.fail != nil {
		return model.Account{}, f.fail
	}
	return f.chart.Rename(code, name, description)
}

func TestDirectory_Refresh(t *testing.T) {
	remote := newFakeRemote(t)
	d := NewDirectory(remote)
	assert.Empty(t, d.Chart().All())

	chart, err := d.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, chart.All(), len(DefaultChart()))
	assert.Same(t, chart, d.Chart())
}

func TestDirectory_RefreshSharesConcurrentFetch(t *testing.T) {
	remote := newFakeRemote(t)
	remote.delay = 50 * time.Millisecond
	d := NewDirectory(remote)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Refresh(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, remote.fetches.Load(), int32(5))
}

func TestDirectory_RefreshError(t *testing.T) {
	remote := newFakeRemote(t)
	remote.fail = errors.New("connection refused")
	d := NewDirectory(remote)

	_, err := d.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching accounts")
}

func TestDirectory_CreateValidatesLocally(t *testing.T) {
	remote := newFakeRemote(t)
	d := NewDirectory(remote)
	_, err := d.Refresh(context.Background())
	require.NoError(t, err)

	_, err = d.Create(context.Background(), CreateRequest{ParentCode: "1000", SubCode: "1100"})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Zero(t, remote.creates, "invalid request must not reach the ledger")
}

func TestDirectory_CreateMerges(t *testing.T) {
	remote := newFakeRemote(t)
	d := NewDirectory(remote)
	_, err := d.Refresh(context.Background())
	require.NoError(t, err)
	before := d.Chart()

	created, err := d.Create(context.Background(), CreateRequest{ParentCode: "5000", SubName: "Marketing", RealName: "Flyers"})
	require.NoError(t, err)
	require.Len(t, created, 2)

	assert.True(t, d.Chart().Exists(created[0].Code))
	assert.True(t, d.Chart().Exists(created[1].Code))
	assert.False(t, before.Exists(created[1].Code), "old snapshot is not mutated")
	assert.Equal(t, []string{"5000", "5300", "5301"}, codes(d.Search("flyers")))
}

func TestDirectory_Rename(t *testing.T) {
	remote := newFakeRemote(t)
	d := NewDirectory(remote)
	_, err := d.Refresh(context.Background())
	require.NoError(t, err)
	before := d.Chart()

	got, err := d.Rename(context.Background(), "5201", "Office Rent", "Monthly")
	require.NoError(t, err)
	assert.Equal(t, "5201", got.Code)
	assert.Equal(t, "5200", got.ParentCode)

	a, _ := d.Chart().Get("5201")
	assert.Equal(t, "Office Rent", a.Name)
	old, _ := before.Get("5201")
	assert.Equal(t, "Rent", old.Name)

	_, err = d.Rename(context.Background(), "5201", "", "")
	assert.ErrorIs(t, err, ErrNameRequired)
}
