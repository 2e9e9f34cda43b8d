package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/conorfennell/lexideck/internal/domain"
	mock_session "github.com/conorfennell/lexideck/internal/mocks/session"
	"github.com/conorfennell/lexideck/internal/srs"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func dueCard(dictionaryID string, stage srs.Stage) domain.Card {
	due := testNow.Add(-time.Hour)
	return domain.Card{
		ID:           uuid.New(),
		DictionaryID: dictionaryID,
		AddedAt:      testNow.Add(-72 * time.Hour),
		Stage:        stage,
		DueDate:      &due,
	}
}

func newTestEngine(cards CardStore, ledger Ledger) *Engine {
	return NewEngine(cards, ledger,
		WithClock(func() time.Time { return testNow }),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func startWith(t *testing.T, cards ...domain.Card) (*Engine, *Session, *mock_session.MockCardStore, *mock_session.MockLedger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	cardStore := mock_session.NewMockCardStore(ctrl)
	ledger := mock_session.NewMockLedger(ctrl)
	cardStore.EXPECT().FetchDue(gomock.Any(), testNow).Return(cards, nil)

	engine := newTestEngine(cardStore, ledger)
	s, err := engine.Start(context.Background())
	require.NoError(t, err)
	return engine, s, cardStore, ledger
}

func TestEngine_Start(t *testing.T) {
	t.Run("nothing due", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cardStore := mock_session.NewMockCardStore(ctrl)
		cardStore.EXPECT().FetchDue(gomock.Any(), testNow).Return(nil, nil)

		s, err := newTestEngine(cardStore, mock_session.NewMockLedger(ctrl)).Start(context.Background())
		assert.ErrorIs(t, err, domain.ErrNothingDue)
		assert.Nil(t, s)
	})

	t.Run("store failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		cardStore := mock_session.NewMockCardStore(ctrl)
		cardStore.EXPECT().FetchDue(gomock.Any(), testNow).
			Return(nil, domain.Persistence("fetch due cards", errors.New("database is locked")))

		_, err := newTestEngine(cardStore, mock_session.NewMockLedger(ctrl)).Start(context.Background())
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})

	t.Run("snapshots the due set", func(t *testing.T) {
		cards := []domain.Card{
			dueCard("a", srs.Apprentice1),
			dueCard("b", srs.Guru1),
			dueCard("c", srs.Master),
		}
		_, s, _, _ := startWith(t, cards...)

		assert.Equal(t, AwaitingReveal, s.State())
		assert.Equal(t, 3, s.TotalCards())
		assert.Equal(t, 3, s.Remaining())
		assert.False(t, s.Revealed())
		assert.Equal(t, Results{}, s.Results())
		assert.True(t, s.StartedAt().Equal(testNow))

		current, ok := s.Current()
		require.True(t, ok)
		assert.Contains(t, []string{"a", "b", "c"}, current.Card.DictionaryID)
		assert.Zero(t, current.SessionIncorrectCount)
	})
}

func TestSession_Reveal(t *testing.T) {
	engine, s, _, _ := startWith(t, dueCard("a", srs.Apprentice2))

	_, err := engine.Submit(context.Background(), s, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "answers need a revealed card")

	require.NoError(t, s.Reveal())
	assert.True(t, s.Revealed())
	assert.Equal(t, AwaitingAnswer, s.State())

	require.NoError(t, s.Reveal(), "revealing twice is a no-op")
	assert.Equal(t, AwaitingAnswer, s.State())

	var nilSession *Session
	assert.ErrorIs(t, nilSession.Reveal(), domain.ErrInvalidState)
}

func TestEngine_SubmitCorrect(t *testing.T) {
	card := dueCard("a", srs.Apprentice4)
	engine, s, cardStore, ledger := startWith(t, card)

	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *domain.ReviewRecord) error {
			assert.Equal(t, card.ID, rec.CardID)
			assert.Equal(t, srs.Apprentice4, rec.StageBefore)
			assert.Equal(t, srs.Guru1, rec.StageAfter)
			assert.True(t, rec.IsCorrect)
			assert.Zero(t, rec.IncorrectCount)
			assert.True(t, rec.ReviewedAt.Equal(testNow))
			return nil
		})
	cardStore.EXPECT().ApplyReviewOutcome(gomock.Any(), card.ID, srs.Guru1, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, _ srs.Stage, due *time.Time) error {
			require.NotNil(t, due)
			assert.True(t, due.Equal(testNow.Add(7*24*time.Hour)))
			return nil
		})

	require.NoError(t, s.Reveal())
	answer, err := engine.Submit(context.Background(), s, true)
	require.NoError(t, err)

	assert.Equal(t, srs.Guru1, answer.NewStage)
	assert.False(t, answer.Requeued)
	assert.False(t, answer.Burned)
	assert.Equal(t, Results{Correct: 1}, s.Results())
	assert.Equal(t, Complete, s.State())
	_, ok := s.Current()
	assert.False(t, ok)

	_, err = engine.Submit(context.Background(), s, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, s.Reveal(), domain.ErrInvalidState)
}

func TestEngine_SubmitIncorrectRequeues(t *testing.T) {
	card := dueCard("a", srs.Apprentice4)
	engine, s, cardStore, ledger := startWith(t, card)
	ctx := context.Background()

	var records []domain.ReviewRecord
	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rec *domain.ReviewRecord) error {
			records = append(records, *rec)
			return nil
		}).Times(3)

	require.NoError(t, s.Reveal())
	answer, err := engine.Submit(ctx, s, false)
	require.NoError(t, err)
	assert.True(t, answer.Requeued)
	assert.Equal(t, srs.Apprentice3, answer.NewStage)
	assert.Nil(t, answer.DueDate)

	current, ok := s.Current()
	require.True(t, ok, "the missed card comes back")
	assert.Equal(t, card.ID, current.Card.ID)
	assert.Equal(t, srs.Apprentice4, current.Card.Stage, "stored stage is untouched by a miss")
	assert.Equal(t, 1, current.SessionIncorrectCount)
	assert.Equal(t, 1, s.IncorrectCount(card.ID))
	assert.Equal(t, AwaitingReveal, s.State())
	assert.False(t, s.Revealed())

	require.NoError(t, s.Reveal())
	_, err = engine.Submit(ctx, s, false)
	require.NoError(t, err)

	cardStore.EXPECT().ApplyReviewOutcome(gomock.Any(), card.ID, srs.Guru1, gomock.Any()).Return(nil)
	require.NoError(t, s.Reveal())
	_, err = engine.Submit(ctx, s, true)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, 1, records[0].IncorrectCount)
	assert.Equal(t, srs.Apprentice3, records[0].StageAfter)
	assert.Equal(t, 2, records[1].IncorrectCount)
	assert.Equal(t, srs.Apprentice3, records[1].StageAfter)
	assert.Equal(t, 2, records[2].IncorrectCount)
	assert.Equal(t, srs.Apprentice4, records[2].StageBefore)
	assert.Equal(t, srs.Guru1, records[2].StageAfter)

	assert.Equal(t, Results{Correct: 1, Incorrect: 2}, s.Results())
	assert.Equal(t, 1, s.TotalCards())
	assert.Equal(t, Complete, s.State())
}

func TestEngine_SubmitBurns(t *testing.T) {
	card := dueCard("a", srs.Enlightened)
	engine, s, cardStore, ledger := startWith(t, card)

	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	cardStore.EXPECT().ApplyReviewOutcome(gomock.Any(), card.ID, srs.Burned, gomock.Nil()).Return(nil)

	require.NoError(t, s.Reveal())
	answer, err := engine.Submit(context.Background(), s, true)
	require.NoError(t, err)

	assert.True(t, answer.Burned)
	assert.Nil(t, answer.DueDate)
	assert.Equal(t, Results{Correct: 1, Burned: 1}, s.Results())
}

func TestEngine_SubmitLedgerFailureLeavesSession(t *testing.T) {
	card := dueCard("a", srs.Guru2)
	engine, s, _, ledger := startWith(t, card)

	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).
		Return(domain.Persistence("insert review record", errors.New("disk I/O error")))

	require.NoError(t, s.Reveal())
	_, err := engine.Submit(context.Background(), s, false)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	assert.Equal(t, AwaitingAnswer, s.State())
	current, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, card.ID, current.Card.ID)
	assert.Zero(t, s.IncorrectCount(card.ID))
	assert.Equal(t, Results{}, s.Results())
	assert.Equal(t, 1, s.Remaining())
}

func TestEngine_SubmitCardUpdateFailureStillAdvances(t *testing.T) {
	card := dueCard("a", srs.Apprentice1)
	engine, s, cardStore, ledger := startWith(t, card)

	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	cardStore.EXPECT().ApplyReviewOutcome(gomock.Any(), card.ID, srs.Apprentice2, gomock.Any()).
		Return(domain.Persistence("update card", errors.New("disk I/O error")))

	require.NoError(t, s.Reveal())
	answer, err := engine.Submit(context.Background(), s, true)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Equal(t, srs.Apprentice2, answer.NewStage)
	assert.Equal(t, Results{Correct: 1}, s.Results())
	assert.Equal(t, Complete, s.State())
}

func TestEngine_SessionTotals(t *testing.T) {
	cards := []domain.Card{
		dueCard("a", srs.Apprentice1),
		dueCard("b", srs.Apprentice3),
		dueCard("c", srs.Guru2),
		dueCard("d", srs.Enlightened),
	}
	misses := map[uuid.UUID]int{
		cards[0].ID: 2,
		cards[1].ID: 0,
		cards[2].ID: 1,
		cards[3].ID: 3,
	}

	engine, s, cardStore, ledger := startWith(t, cards...)
	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	cardStore.EXPECT().ApplyReviewOutcome(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(len(cards))

	appearances := map[uuid.UUID]int{}
	for s.Active() {
		current, ok := s.Current()
		require.True(t, ok)
		id := current.Card.ID
		appearances[id]++
		assert.Equal(t, appearances[id]-1, current.SessionIncorrectCount)

		require.NoError(t, s.Reveal())
		_, err := engine.Submit(context.Background(), s, appearances[id] > misses[id])
		require.NoError(t, err)
		assert.Equal(t, len(cards), s.TotalCards())
	}

	for id, n := range misses {
		assert.Equal(t, n+1, appearances[id])
	}
	results := s.Results()
	assert.Equal(t, len(cards), results.Correct)
	assert.Equal(t, 6, results.Incorrect)
	assert.Equal(t, 1, results.Burned)
	assert.Greater(t, results.Correct+results.Incorrect, s.TotalCards())
}

func TestSession_Cancel(t *testing.T) {
	engine, s, _, _ := startWith(t, dueCard("a", srs.Apprentice1), dueCard("b", srs.Apprentice1))

	s.Cancel()
	assert.Equal(t, Cancelled, s.State())
	assert.False(t, s.Active())
	assert.Zero(t, s.Remaining())
	assert.ErrorIs(t, s.Reveal(), domain.ErrInvalidState)
	_, err := engine.Submit(context.Background(), s, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSession_NilIsIdle(t *testing.T) {
	var s *Session

	assert.Equal(t, Idle, s.State())
	assert.False(t, s.Active())
	assert.False(t, s.Revealed())
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Zero(t, s.TotalCards())
	assert.Zero(t, s.Remaining())
	assert.Equal(t, Results{}, s.Results())
	assert.True(t, s.StartedAt().IsZero())
	assert.Zero(t, s.IncorrectCount(uuid.New()))
	assert.ErrorIs(t, s.Reveal(), domain.ErrInvalidState)
	s.Cancel()

	ctrl := gomock.NewController(t)
	engine := newTestEngine(mock_session.NewMockCardStore(ctrl), mock_session.NewMockLedger(ctrl))
	_, err := engine.Submit(context.Background(), s, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
