package swipe

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajivgeraev/swapspot-api/internal/apperrors"
	"github.com/rajivgeraev/swapspot-api/internal/config"
	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/services/notification"
	"github.com/rajivgeraev/swapspot-api/internal/storage/memory"
)

type fixture struct {
	service *SwipeService
	store   *memory.Store

	alice, bob         *models.User
	aliceItem, bobItem *models.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	cfg := &config.Config{JWTSecret: "test-secret", LocationTimeoutHours: 48}
	notifier := notification.NewDispatcher(store, nil)

	f := &fixture{
		service: NewSwipeService(cfg, store, notifier),
		store:   store,
		alice:   &models.User{ID: uuid.New(), Name: "Алиса"},
		bob:     &models.User{ID: uuid.New(), Name: "Боб"},
	}
	f.aliceItem = &models.Item{ID: uuid.New(), UserID: f.alice.ID, Title: "Книга", Status: models.ItemStatusActive}
	f.bobItem = &models.Item{ID: uuid.New(), UserID: f.bob.ID, Title: "Пазл", Status: models.ItemStatusActive}

	store.AddUser(f.alice)
	store.AddUser(f.bob)
	store.AddItem(f.aliceItem)
	store.AddItem(f.bobItem)
	return f
}

func TestRecordSwipeStoresDecision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionLike)
	require.NoError(t, err)

	assert.False(t, result.Matched)
	assert.Nil(t, result.Swap)
	require.NotNil(t, result.Swipe)
	assert.Equal(t, models.SwipeActionLike, result.Swipe.Action)
	assert.Equal(t, f.alice.ID, result.Swipe.SwiperUserID)
}

func TestRecordSwipeRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name           string
		callerID       uuid.UUID
		swiperItemID   uuid.UUID
		swipedOnItemID uuid.UUID
		action         string
		wantKind       apperrors.Kind
	}{
		{
			name:           "unknown action",
			callerID:       f.alice.ID,
			swiperItemID:   f.aliceItem.ID,
			swipedOnItemID: f.bobItem.ID,
			action:         "superlike",
			wantKind:       apperrors.KindValidation,
		},
		{
			name:           "item swiped on itself",
			callerID:       f.alice.ID,
			swiperItemID:   f.aliceItem.ID,
			swipedOnItemID: f.aliceItem.ID,
			action:         models.SwipeActionLike,
			wantKind:       apperrors.KindForbidden,
		},
		{
			name:           "swiping with someone else's item",
			callerID:       f.alice.ID,
			swiperItemID:   f.bobItem.ID,
			swipedOnItemID: f.aliceItem.ID,
			action:         models.SwipeActionLike,
			wantKind:       apperrors.KindForbidden,
		},
		{
			name:           "liking own item",
			callerID:       f.alice.ID,
			swiperItemID:   f.aliceItem.ID,
			swipedOnItemID: mustAddItem(f.store, f.alice.ID),
			action:         models.SwipeActionLike,
			wantKind:       apperrors.KindForbidden,
		},
		{
			name:           "missing swiper item",
			callerID:       f.alice.ID,
			swiperItemID:   uuid.New(),
			swipedOnItemID: f.bobItem.ID,
			action:         models.SwipeActionLike,
			wantKind:       apperrors.KindNotFound,
		},
		{
			name:           "missing target item",
			callerID:       f.alice.ID,
			swiperItemID:   f.aliceItem.ID,
			swipedOnItemID: uuid.New(),
			action:         models.SwipeActionLike,
			wantKind:       apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.RecordSwipe(ctx, tt.callerID, tt.swiperItemID, tt.swipedOnItemID, tt.action)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, tt.wantKind), "unexpected error: %v", err)
		})
	}
}

func mustAddItem(store *memory.Store, ownerID uuid.UUID) uuid.UUID {
	item := &models.Item{ID: uuid.New(), UserID: ownerID, Title: "Еще предмет", Status: models.ItemStatusActive}
	store.AddItem(item)
	return item.ID
}

func TestMutualLikeCreatesSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.RecordSwipe(ctx, f.bob.ID, f.bobItem.ID, f.aliceItem.ID, models.SwipeActionLike)
	require.NoError(t, err)
	assert.False(t, first.Matched)

	second, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionLike)
	require.NoError(t, err)
	assert.True(t, second.Matched)
	require.NotNil(t, second.Swap)

	swap := second.Swap
	assert.Equal(t, models.SwapStatusActive, swap.Status)
	assert.LessOrEqual(t, bytes.Compare(swap.ItemAID[:], swap.ItemBID[:]), 0,
		"пара предметов должна храниться канонически")

	// Владелец item_a — это user_a
	if swap.ItemAID == f.aliceItem.ID {
		assert.Equal(t, f.alice.ID, swap.UserAID)
		assert.Equal(t, f.bob.ID, swap.UserBID)
	} else {
		assert.Equal(t, f.bob.ID, swap.UserAID)
		assert.Equal(t, f.alice.ID, swap.UserBID)
	}
}

func TestRepeatedMutualLikeReturnsSameSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.RecordSwipe(ctx, f.bob.ID, f.bobItem.ID, f.aliceItem.ID, models.SwipeActionLike)
	require.NoError(t, err)

	first, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionLike)
	require.NoError(t, err)
	require.True(t, first.Matched)

	second, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionLike)
	require.NoError(t, err)
	require.True(t, second.Matched)
	assert.Equal(t, first.Swap.ID, second.Swap.ID)
}

func TestSkipOverwrittenByLike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Алиса сначала пропускает
	skipped, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionSkip)
	require.NoError(t, err)
	assert.False(t, skipped.Matched)

	_, err = f.service.RecordSwipe(ctx, f.bob.ID, f.bobItem.ID, f.aliceItem.ID, models.SwipeActionLike)
	require.NoError(t, err)

	// Передумала: like перезаписывает skip и матч срабатывает
	liked, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionLike)
	require.NoError(t, err)
	assert.True(t, liked.Matched)
	require.NotNil(t, liked.Swap)
}

func TestSkipNeverMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.RecordSwipe(ctx, f.bob.ID, f.bobItem.ID, f.aliceItem.ID, models.SwipeActionLike)
	require.NoError(t, err)

	result, err := f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionSkip)
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Nil(t, result.Swap)
}

func TestConcurrentMutualLikesCreateSingleSwap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], errs[0] = f.service.RecordSwipe(ctx, f.alice.ID, f.aliceItem.ID, f.bobItem.ID, models.SwipeActionLike)
	}()
	go func() {
		defer wg.Done()
		results[1], errs[1] = f.service.RecordSwipe(ctx, f.bob.ID, f.bobItem.ID, f.aliceItem.ID, models.SwipeActionLike)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Минимум один из двух лайков видит встречный; все сматчившиеся
	// получают один и тот же обмен
	var swapIDs []uuid.UUID
	for _, result := range results {
		if result.Matched {
			require.NotNil(t, result.Swap)
			swapIDs = append(swapIDs, result.Swap.ID)
		}
	}
	require.NotEmpty(t, swapIDs)
	for _, id := range swapIDs {
		assert.Equal(t, swapIDs[0], id)
	}

	swaps, err := f.store.ListSwapsForUser(ctx, f.alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, swaps, 1)
}
