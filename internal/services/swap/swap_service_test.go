package swap

import (
	"context"
	"sync"
	"testing"
	"time"

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
	service *SwapService
	store   *memory.Store

	swap     *models.Swap
	userA    *models.User
	userB    *models.User
	stranger *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	cfg := &config.Config{JWTSecret: "test-secret", LocationTimeoutHours: 48}
	notifier := notification.NewDispatcher(store, nil)

	userA := &models.User{ID: uuid.New(), Name: "Алиса"}
	userB := &models.User{ID: uuid.New(), Name: "Боб"}
	stranger := &models.User{ID: uuid.New(), Name: "Посторонний"}
	store.AddUser(userA)
	store.AddUser(userB)
	store.AddUser(stranger)

	itemA := &models.Item{ID: uuid.New(), UserID: userA.ID, Title: "Книга", Status: models.ItemStatusActive}
	itemB := &models.Item{ID: uuid.New(), UserID: userB.ID, Title: "Пазл", Status: models.ItemStatusActive}

	// Выравниваем раскладку a/b по каноническому порядку пары предметов
	if aID, _ := models.CanonicalItemPair(itemA.ID, itemB.ID); aID != itemA.ID {
		itemA, itemB = itemB, itemA
		userA, userB = userB, userA
	}
	store.AddItem(itemA)
	store.AddItem(itemB)

	swap, created, err := store.CreateOrGetSwap(context.Background(), &models.Swap{
		ItemAID: itemA.ID,
		ItemBID: itemB.ID,
		UserAID: userA.ID,
		UserBID: userB.ID,
	})
	require.NoError(t, err)
	require.True(t, created)

	return &fixture{
		service:  NewSwapService(cfg, store, notifier, nil),
		store:    store,
		swap:     swap,
		userA:    userA,
		userB:    userB,
		stranger: stranger,
	}
}

func (f *fixture) reload(t *testing.T) *models.Swap {
	t.Helper()
	swap, err := f.store.GetSwap(context.Background(), f.swap.ID)
	require.NoError(t, err)
	return swap
}

func TestSendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	message, err := f.service.SendMessage(ctx, f.userA.ID, f.swap.ID, "Привет! Где встретимся?")
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeText, message.Type)
	assert.Equal(t, f.userA.ID, message.SenderUserID)

	messages, err := f.service.GetMessages(ctx, f.userB.ID, f.swap.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, message.ID, messages[0].ID)

	// Статус обмена не меняется от обычного текста
	assert.Equal(t, models.SwapStatusActive, f.reload(t).Status)
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.SendMessage(ctx, f.userA.ID, f.swap.ID, "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	long := make([]byte, maxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = f.service.SendMessage(ctx, f.userA.ID, f.swap.ID, string(long))
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = f.service.SendMessage(ctx, f.stranger.ID, f.swap.ID, "Привет")
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.service.SendMessage(ctx, f.userA.ID, uuid.New(), "Привет")
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSuggestLocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	message, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.7558, 37.6173, "Кафе на Арбате", "ул. Арбат, 1")
	require.NoError(t, err)

	assert.Equal(t, models.MessageTypeLocation, message.Type)
	assert.True(t, message.LocationAgreedByUserA, "флаг предложившего выставлен сразу")
	assert.False(t, message.LocationAgreedByUserB)
	require.NotNil(t, message.Lat)
	assert.InDelta(t, 55.7558, *message.Lat, 1e-9)

	swap := f.reload(t)
	assert.Equal(t, models.SwapStatusLocationSuggested, swap.Status)
	assert.NotNil(t, swap.LocationSuggestedAt)
}

func TestSuggestLocationBySideB(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	message, err := f.service.SuggestLocation(ctx, f.userB.ID, f.swap.ID, 59.9387, 30.3162, "Невский проспект", "")
	require.NoError(t, err)

	assert.False(t, message.LocationAgreedByUserA)
	assert.True(t, message.LocationAgreedByUserB)
	assert.Nil(t, message.LocationAddress)
}

func TestSuggestLocationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, coords := range [][2]float64{{91, 0}, {-91, 0}, {0, 181}, {0, -181}} {
		_, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, coords[0], coords[1], "Где-то", "")
		assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "coords %v", coords)
	}

	longName := make([]byte, maxLocationNameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}
	_, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 0, 0, string(longName), "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = f.service.SuggestLocation(ctx, f.stranger.ID, f.swap.ID, 0, 0, "Где-то", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestSuggestLocationReplacesPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Первое место", "")
	require.NoError(t, err)

	// Встречное предложение из location_suggested разрешено
	second, err := f.service.SuggestLocation(ctx, f.userB.ID, f.swap.ID, 55.76, 37.62, "Второе место", "")
	require.NoError(t, err)
	assert.True(t, second.LocationAgreedByUserB)

	swap := f.reload(t)
	assert.Equal(t, models.SwapStatusLocationSuggested, swap.Status)

	messages, err := f.service.GetMessages(ctx, f.userA.ID, f.swap.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestSuggestLocationBlockedAfterAgreement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suggestion, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)
	_, err = f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, suggestion.ID)
	require.NoError(t, err)

	_, err = f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.76, 37.62, "Другое кафе", "")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestAcceptLocationRequiresBothVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suggestion, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)

	// Повторное согласие предложившего ничего не меняет
	message, err := f.service.AcceptLocation(ctx, f.userA.ID, f.swap.ID, suggestion.ID)
	require.NoError(t, err)
	assert.True(t, message.LocationAgreedByUserA)
	assert.False(t, message.LocationAgreedByUserB)
	assert.Equal(t, models.SwapStatusLocationSuggested, f.reload(t).Status)

	// Голос второй стороны завершает согласование
	message, err = f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, suggestion.ID)
	require.NoError(t, err)
	assert.True(t, message.LocationAgreedByUserA)
	assert.True(t, message.LocationAgreedByUserB)
	assert.Equal(t, models.SwapStatusLocationAgreed, f.reload(t).Status)

	// Системное сообщение о согласовании добавлено в чат
	messages, err := f.service.GetMessages(ctx, f.userA.ID, f.swap.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.MessageTypeLocationAgreement, messages[1].Type)
}

func TestAcceptLocationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	suggestion, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)

	_, err = f.service.AcceptLocation(ctx, f.stranger.ID, f.swap.ID, suggestion.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	// Текстовое сообщение не является предложением места
	text, err := f.service.SendMessage(ctx, f.userA.ID, f.swap.ID, "Привет")
	require.NoError(t, err)
	_, err = f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, text.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestAcceptLocationRejectsForeignMessage(t *testing.T) {
	f := newFixture(t)
	other := newFixture(t)
	ctx := context.Background()

	foreign, err := other.service.SuggestLocation(ctx, other.userA.ID, other.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)

	// Сообщение из чужого обмена: у f своя БД, поэтому сначала переносим
	// сообщение в хранилище f под другим swap_id
	foreign.SwapID = uuid.New()
	require.NoError(t, f.store.CreateMessage(ctx, foreign))

	_, err = f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)

	_, err = f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, foreign.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}

func TestAcceptLocationWithoutPendingSuggestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestConfirmTrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Первое подтверждение не завершает сделку
	swap, err := f.service.ConfirmTrade(ctx, f.userA.ID, f.swap.ID)
	require.NoError(t, err)
	assert.True(t, swap.ItemAOwnerConfirmed)
	assert.False(t, swap.ItemBOwnerConfirmed)
	assert.Equal(t, models.SwapStatusActive, swap.Status)

	// Повторное подтверждение той же стороны идемпотентно
	swap, err = f.service.ConfirmTrade(ctx, f.userA.ID, f.swap.ID)
	require.NoError(t, err)
	assert.True(t, swap.ItemAOwnerConfirmed)
	assert.Equal(t, models.SwapStatusActive, swap.Status)

	// Второе подтверждение завершает сделку и помечает предметы
	swap, err = f.service.ConfirmTrade(ctx, f.userB.ID, f.swap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusTradeComplete, swap.Status)

	itemA, err := f.store.GetItem(ctx, swap.ItemAID)
	require.NoError(t, err)
	itemB, err := f.store.GetItem(ctx, swap.ItemBID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemStatusTraded, itemA.Status)
	assert.Equal(t, models.ItemStatusTraded, itemB.Status)
}

func TestConfirmTradeErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ConfirmTrade(ctx, f.stranger.ID, f.swap.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))

	_, err = f.service.ConfirmTrade(ctx, f.userA.ID, uuid.New())
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))

	_, err = f.service.ConfirmTrade(ctx, f.userA.ID, f.swap.ID)
	require.NoError(t, err)
	_, err = f.service.ConfirmTrade(ctx, f.userB.ID, f.swap.ID)
	require.NoError(t, err)

	// Сделка уже завершена
	_, err = f.service.ConfirmTrade(ctx, f.userA.ID, f.swap.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidState))
}

func TestConfirmTradeDuringLocationNegotiation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Треки независимы: подтверждать можно и не договорившись о месте
	_, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)

	_, err = f.service.ConfirmTrade(ctx, f.userA.ID, f.swap.ID)
	require.NoError(t, err)

	swap, err := f.service.ConfirmTrade(ctx, f.userB.ID, f.swap.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SwapStatusTradeComplete, swap.Status)
}

func TestConcurrentConfirmations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.service.ConfirmTrade(ctx, f.userA.ID, f.swap.ID)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = f.service.ConfirmTrade(ctx, f.userB.ID, f.swap.ID)
	}()
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	swap := f.reload(t)
	assert.Equal(t, models.SwapStatusTradeComplete, swap.Status)
	assert.True(t, swap.ItemAOwnerConfirmed)
	assert.True(t, swap.ItemBOwnerConfirmed)
}

func TestSweepResetsExpiredSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	// Предложение сделано 49 часов назад
	require.NoError(t, f.store.MarkLocationSuggested(ctx, f.swap.ID, now.Add(-49*time.Hour)))

	reset, err := f.service.SweepExpiredLocationSuggestions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, reset)

	swap := f.reload(t)
	assert.Equal(t, models.SwapStatusActive, swap.Status)
	assert.Nil(t, swap.LocationSuggestedAt)
}

func TestSweepKeepsFreshSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, f.store.MarkLocationSuggested(ctx, f.swap.ID, now.Add(-time.Hour)))

	reset, err := f.service.SweepExpiredLocationSuggestions(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, reset)
	assert.Equal(t, models.SwapStatusLocationSuggested, f.reload(t).Status)
}

func TestSweepIgnoresAgreedSwaps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	suggestion, err := f.service.SuggestLocation(ctx, f.userA.ID, f.swap.ID, 55.75, 37.61, "Кафе", "")
	require.NoError(t, err)
	_, err = f.service.AcceptLocation(ctx, f.userB.ID, f.swap.ID, suggestion.ID)
	require.NoError(t, err)

	// Даже с далеко отстоящим порогом согласованный обмен не откатывается
	reset, err := f.service.SweepExpiredLocationSuggestions(ctx, now.Add(72*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 0, reset)
	assert.Equal(t, models.SwapStatusLocationAgreed, f.reload(t).Status)
}

func TestListSwaps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	swaps, err := f.service.ListSwaps(ctx, f.userA.ID, "")
	require.NoError(t, err)
	require.Len(t, swaps, 1)

	// Предметы и участники подгружены
	require.NotNil(t, swaps[0].ItemA)
	require.NotNil(t, swaps[0].UserB)
	assert.Equal(t, f.swap.ItemAID, swaps[0].ItemA.ID)

	swaps, err = f.service.ListSwaps(ctx, f.userA.ID, models.SwapStatusTradeComplete)
	require.NoError(t, err)
	assert.Empty(t, swaps)

	_, err = f.service.ListSwaps(ctx, f.userA.ID, "cancelled")
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	swaps, err = f.service.ListSwaps(ctx, f.stranger.ID, "")
	require.NoError(t, err)
	assert.Empty(t, swaps)
}

func TestGetMessagesForbiddenForStranger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.GetMessages(ctx, f.stranger.ID, f.swap.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
}
