package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/backend/memdriver"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/favorites"
	"furniture-miniapp/internal/fixtures"
	"furniture-miniapp/internal/state"
	users "furniture-miniapp/internal/user"
	"furniture-miniapp/internal/webapp"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testBotToken = "123456:TEST-TOKEN"

var testNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type screenFixture struct {
	router   *gin.Engine
	driver   *memdriver.Driver
	bus      *events.MockEventBus
	activity activity.Service
	registry *state.Registry
}

type screenResponse struct {
	Screen  string          `json:"screen"`
	Data    json.RawMessage `json:"data"`
	Effects []webapp.Effect `json:"effects"`
}

func newScreenFixture(t *testing.T, host webapp.Host) *screenFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := common.NewMockClock(testNow)
	d := memdriver.New(clock)
	require.NoError(t, fixtures.Seed(context.Background(), d))

	zl := zaptest.NewLogger(t)
	log := logger.Wrap(zl)
	products := catalog.NewService(d, zl, 4)
	bus := events.NewMockEventBus()
	activitySvc := activity.NewService(d, zl)
	registry := state.NewRegistry(state.Dependencies{
		Catalog:   products,
		Favorites: favorites.NewService(d, products, zl),
		Users:     users.NewService(d, zl),
		Bus:       bus,
	}, 30*time.Minute, clock, zl)

	if host == nil {
		host = webapp.NewRealHost(testBotToken, 24*time.Hour, clock, zl)
	}

	h := NewScreenHandler(activitySvc, bus, log)
	router := gin.New()
	router.Use(middleware.RequestLogging(log))
	app := router.Group("", middleware.Identity(host, registry, log))
	app.GET("/", h.Splash)
	app.GET("/home", h.Home)
	app.GET("/catalog", h.Catalog)
	app.POST("/catalog/search", h.Search)
	app.GET("/item/:id", h.Item)
	app.POST("/item/:id/favorite", h.ToggleFavorite)
	app.GET("/favorites", h.Favorites)
	app.DELETE("/favorites", h.ClearFavorites)
	app.DELETE("/favorites/:id", h.RemoveFavorite)
	app.GET("/profile", h.Profile)
	app.GET("/orders", ComingSoon("Мои заказы"))
	router.GET("/404", NotFound)
	router.NoRoute(RedirectNotFound)

	return &screenFixture{router: router, driver: d, bus: bus, activity: activitySvc, registry: registry}
}

func initData(user common.TelegramUser) string {
	raw, _ := json.Marshal(user)
	return webapp.SignInitData(url.Values{
		"user":      {string(raw)},
		"auth_date": {strconv.FormatInt(testNow.Add(-time.Minute).Unix(), 10)},
		"query_id":  {"AAH"},
	}, testBotToken)
}

var anna = common.TelegramUser{ID: 777, FirstName: "Анна", LastName: "Петрова", Username: "anna"}

func (f *screenFixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, screenResponse) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderInitData, initData(anna))
	req.Header.Set(middleware.HeaderPlatform, "ios")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp screenResponse
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func effectTypes(effects []webapp.Effect) []webapp.EffectType {
	types := make([]webapp.EffectType, 0, len(effects))
	for _, e := range effects {
		types = append(types, e.Type)
	}
	return types
}

func TestScreens_MissingInitDataIsUnauthorized(t *testing.T) {
	f := newScreenFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Откройте магазин через Telegram")
	assert.Equal(t, 0, f.registry.Len())
}

func TestScreens_TamperedInitDataIsUnauthorized(t *testing.T) {
	f := newScreenFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Authorization", "tma "+strings.Replace(initData(anna), "777", "778", 1))
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScreens_Splash(t *testing.T) {
	f := newScreenFixture(t, nil)

	w, resp := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "splash", resp.Screen)
	assert.Equal(t, []webapp.EffectType{
		webapp.EffectReady,
		webapp.EffectExpand,
		webapp.EffectClosingConfirmation,
		webapp.EffectNavigate,
	}, effectTypes(resp.Effects))

	var view splashView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.True(t, view.Ready)
	assert.Equal(t, "/home", view.Redirect)
	require.NotNil(t, view.Host)
	assert.Equal(t, anna.ID, view.Host.User.ID)
}

func TestScreens_HomePaging(t *testing.T) {
	f := newScreenFixture(t, nil)

	_, resp := f.do(t, http.MethodGet, "/home", "")
	var first homeView
	require.NoError(t, json.Unmarshal(resp.Data, &first))
	assert.Equal(t, "👋 Привет, Анна!", first.Greeting)
	assert.Len(t, first.Products, HomePageSize)
	assert.Equal(t, len(fixtures.Products()), first.Total)
	assert.True(t, first.HasMore)
	assert.Equal(t, state.AllCategory, first.Categories[0].ID)
	assert.Len(t, first.QuickLinks, 3)
	assert.Nil(t, first.Empty)

	_, resp = f.do(t, http.MethodGet, "/home?page=2", "")
	var second homeView
	require.NoError(t, json.Unmarshal(resp.Data, &second))
	assert.Equal(t, 2, second.Page)
	assert.Len(t, second.Products, len(fixtures.Products())-HomePageSize)
	assert.False(t, second.HasMore)
	assert.NotEqual(t, first.Products[0].ID, second.Products[0].ID)
}

func TestScreens_HomeCategoryAndSearch(t *testing.T) {
	f := newScreenFixture(t, nil)

	_, resp := f.do(t, http.MethodGet, "/home?category=1", "")
	var view homeView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "1", view.ActiveCategory)
	assert.Len(t, view.Products, 3)
	assert.Contains(t, effectTypes(resp.Effects), webapp.EffectHapticSelection)

	_, resp = f.do(t, http.MethodGet, "/home?category=1&q=%D0%BA%D1%80%D0%BE%D0%B2%D0%B0%D1%82", "")
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Len(t, view.Products, 1, "only the sofa bed matches")
	assert.NotContains(t, effectTypes(resp.Effects), webapp.EffectHapticSelection)

	_, resp = f.do(t, http.MethodGet, "/home?q=nothing-like-this", "")
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Empty(t, view.Products)
	require.NotNil(t, view.Empty)
	assert.Equal(t, "Ничего не найдено", view.Empty.Title)

	_, resp = f.do(t, http.MethodGet, "/home?category=sofas", "")
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "1", view.ActiveCategory)
	assert.Empty(t, view.SearchQuery, "switching category clears the query")
	assert.Len(t, view.Products, 3)

	_, resp = f.do(t, http.MethodGet, "/home?q=%D0%BA%D1%80%D0%BE%D0%B2%D0%B0%D1%82", "")
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	_, resp = f.do(t, http.MethodGet, "/home?page=1", "")
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "кроват", view.SearchQuery, "the query survives navigation")
	assert.Len(t, view.Products, 1)

	w, _ := f.do(t, http.MethodGet, "/home?category=lamps", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreens_CatalogFilter(t *testing.T) {
	f := newScreenFixture(t, nil)

	_, resp := f.do(t, http.MethodGet, "/catalog?filter=sale", "")
	var view catalogView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, catalog.FilterSale, view.ActiveFilter)
	require.NotEmpty(t, view.Products)
	for _, p := range view.Products {
		assert.True(t, p.OnSale)
		assert.Greater(t, p.DiscountPercent, 0)
		assert.NotEmpty(t, p.OriginalLabel)
	}

	w, _ := f.do(t, http.MethodGet, "/catalog?filter=cheap", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreens_CatalogSearch(t *testing.T) {
	f := newScreenFixture(t, nil)

	w, resp := f.do(t, http.MethodPost, "/catalog/search", `{"query":"лофт"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var view catalogView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	require.Len(t, view.Products, 1)
	assert.Equal(t, int64(4), view.Products[0].ID)
}

func TestScreens_Item(t *testing.T) {
	f := newScreenFixture(t, nil)

	w, resp := f.do(t, http.MethodGet, "/item/2?quantity=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, effectTypes(resp.Effects), webapp.EffectBackButtonShow)

	var view itemView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "38\u00a0000\u00a0₽", view.PriceLabel)
	assert.Equal(t, "52\u00a0000\u00a0₽", view.OriginalLabel)
	assert.Equal(t, 27, view.DiscountPercent)
	assert.Equal(t, "В корзину • 76\u00a0000\u00a0₽", view.CartLabel)
	assert.True(t, view.CanAddToCart)

	viewed := f.bus.GetPublishedEvents(events.TopicProductViewed)
	require.Len(t, viewed, 1)
	assert.Equal(t, int64(2), viewed[0].(events.ProductViewed).ProductID)

	_, resp = f.do(t, http.MethodGet, "/item/8", "")
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.False(t, view.CanAddToCart)
	assert.Equal(t, "Нет в наличии", view.CartLabel)
}

func TestScreens_ItemNotFound(t *testing.T) {
	f := newScreenFixture(t, nil)

	for _, target := range []string{"/item/999", "/item/abc"} {
		w, resp := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusNotFound, w.Code, target)
		assert.Equal(t, "not_found", resp.Screen)

		var notice Notice
		require.NoError(t, json.Unmarshal(resp.Data, &notice))
		assert.Equal(t, "Товар не найден", notice.Title)
		require.NotNil(t, notice.Action)
		assert.Equal(t, "/catalog", notice.Action.Path)
	}
}

func TestScreens_FavoritesFlow(t *testing.T) {
	f := newScreenFixture(t, nil)

	w, resp := f.do(t, http.MethodPost, "/item/3/favorite", "")
	require.Equal(t, http.StatusOK, w.Code)
	var toggle favoriteToggleView
	require.NoError(t, json.Unmarshal(resp.Data, &toggle))
	assert.True(t, toggle.IsFavorite)
	assert.Equal(t, 1, toggle.Count)
	assert.Equal(t, []webapp.Effect{{Type: webapp.EffectHapticImpact, Value: webapp.ImpactMedium}}, resp.Effects)

	f.do(t, http.MethodPost, "/item/5/favorite", "")

	_, resp = f.do(t, http.MethodGet, "/favorites", "")
	var list favoritesView
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Nil(t, list.Empty)
	for _, item := range list.Items {
		assert.True(t, item.IsFavorite)
	}

	_, resp = f.do(t, http.MethodGet, "/home", "")
	var home homeView
	require.NoError(t, json.Unmarshal(resp.Data, &home))
	for _, p := range home.Products {
		assert.Equal(t, p.ID == 3 || p.ID == 5, p.IsFavorite, "product %d", p.ID)
	}

	_, resp = f.do(t, http.MethodDelete, "/favorites/3", "")
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, int64(5), list.Items[0].ID)

	added := f.bus.GetPublishedEvents(events.TopicFavoriteAdded)
	removed := f.bus.GetPublishedEvents(events.TopicFavoriteRemoved)
	assert.Len(t, added, 2)
	require.Len(t, removed, 1)
	assert.Equal(t, `Обеденный стол "Классик"`, removed[0].(events.FavoriteRemoved).ProductTitle)

	_, resp = f.do(t, http.MethodDelete, "/favorites", "")
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Zero(t, list.Count)
	require.NotNil(t, list.Empty)
	assert.Equal(t, "⭐", list.Empty.Icon)
}

func TestScreens_ToggleTwiceRestores(t *testing.T) {
	f := newScreenFixture(t, nil)

	var toggle favoriteToggleView
	_, resp := f.do(t, http.MethodPost, "/item/1/favorite", "")
	require.NoError(t, json.Unmarshal(resp.Data, &toggle))
	assert.True(t, toggle.IsFavorite)

	_, resp = f.do(t, http.MethodPost, "/item/1/favorite", "")
	require.NoError(t, json.Unmarshal(resp.Data, &toggle))
	assert.False(t, toggle.IsFavorite)
	assert.Zero(t, toggle.Count)

	w, _ := f.do(t, http.MethodPost, "/item/404/favorite", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestScreens_Profile(t *testing.T) {
	f := newScreenFixture(t, nil)

	f.do(t, http.MethodPost, "/item/2/favorite", "")
	s, err := f.registry.Session(context.Background(), anna)
	require.NoError(t, err)
	_, err = f.activity.LogProductView(context.Background(), s.User.ID(), 2, `Диван-кровать "Модерн"`)
	require.NoError(t, err)

	w, resp := f.do(t, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view profileView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "Анна Петрова", view.DisplayName)
	assert.Equal(t, "А", view.AvatarInitial)
	assert.Equal(t, users.StarterLevel, view.Level)
	assert.Equal(t, 1, view.FavoritesCount)
	require.Len(t, view.RecentActivity, 1)
	assert.Equal(t, int64(2), *view.RecentActivity[0].ProductID)
	require.Len(t, view.RecentlyViewed, 1)
	assert.Equal(t, activity.TypeView, view.RecentlyViewed[0].ActivityType)
	assert.Len(t, view.Menu, 6)
	assert.Equal(t, "Функция выхода скоро будет доступна!", view.Logout.Text)

	require.Len(t, view.StatRows, 5)
	assert.Equal(t, StatRow{Label: "С нами с", Value: "май 2024 г."}, view.StatRows[0])
	assert.Equal(t, StatRow{Label: "Баллы", Value: "0 б", Highlight: true}, view.StatRows[4])
}

func TestScreens_ProfileStatsFailureNotShownAsError(t *testing.T) {
	f := newScreenFixture(t, nil)
	ctx := context.Background()

	s, err := f.registry.Session(ctx, anna)
	require.NoError(t, err)
	_, err = f.driver.Delete(ctx, backend.From(users.TableUserStats).Eq("user_id", s.User.ID()))
	require.NoError(t, err)

	w, resp := f.do(t, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, w.Code)

	var view profileView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Empty(t, view.Error)
	require.NotNil(t, view.Stats, "the last known stats stay on screen")
	assert.Empty(t, s.User.Snapshot().Error)
}

func TestScreens_ComingSoonAndNotFound(t *testing.T) {
	f := newScreenFixture(t, nil)

	w, resp := f.do(t, http.MethodGet, "/orders", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "coming_soon", resp.Screen)
	assert.Equal(t, []webapp.EffectType{webapp.EffectBackButtonShow}, effectTypes(resp.Effects))
	var notice Notice
	require.NoError(t, json.Unmarshal(resp.Data, &notice))
	assert.Equal(t, "Мои заказы", notice.Title)
	assert.True(t, notice.Action.Back)

	w, _ = f.do(t, http.MethodGet, "/checkout", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/404", w.Header().Get("Location"))

	w, resp = f.do(t, http.MethodGet, "/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, json.Unmarshal(resp.Data, &notice))
	assert.Equal(t, "Страница не найдена", notice.Title)
	assert.Equal(t, "/home", notice.Action.Path)
}

func TestScreens_MockHostServesDevelopmentUser(t *testing.T) {
	f := newScreenFixture(t, webapp.NewMockHost(zaptest.NewLogger(t)))

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp screenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Effects)

	var view homeView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	assert.Equal(t, "👋 Привет, Test!", view.Greeting)
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "0\u00a0₽"},
		{950, "950\u00a0₽"},
		{45000, "45\u00a0000\u00a0₽"},
		{1234567.5, "1\u00a0234\u00a0567,5\u00a0₽"},
		{99.99, "99,99\u00a0₽"},
		{10.05, "10,05\u00a0₽"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPrice(tt.amount), "%v", tt.amount)
	}
}

func TestMemberSince(t *testing.T) {
	assert.Equal(t, "январь 2023 г.", MemberSince(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "декабрь 2024 г.", MemberSince(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
}
