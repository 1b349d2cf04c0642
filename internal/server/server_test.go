package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"shopapi/internal/handler"
	"shopapi/internal/infra/memory"
	"shopapi/internal/middleware"
	"shopapi/internal/observability"
	"shopapi/internal/usecase"
	auth "shopapi/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type testApp struct {
	e     *echo.Echo
	store *memory.Store
}

func newTestApp(t *testing.T, limiter *middleware.RateLimiter) *testApp {
	t.Helper()
	return buildTestApp(t, limiter, nil)
}

// inst があれば/metricsとリクエスト計測を有効にする
func buildTestApp(t *testing.T, limiter *middleware.RateLimiter, inst *observability.Instruments) *testApp {
	t.Helper()
	s := memory.NewStore()

	registerUC := auth.NewRegisterUserUsecase(s.Users(), auth.NewBcryptPasswordHasher(bcrypt.MinCost))
	loginUC := auth.NewLoginUsecase(s.Users(), auth.NewBcryptPasswordVerifier(), auth.NewJWTIssuer(testSecret, time.Hour), auth.SystemClock{})
	productUC := usecase.NewProductUsecase(s.Products(), s.Categories())
	orderUC := usecase.NewOrderUsecase(s.Orders(), s.OrderLines())

	_, err := registerUC.EnsureAdmin(context.Background(), "admin", "admin@example.com", "admin-pass-1")
	require.NoError(t, err)

	var checkout usecase.Checkouter = usecase.NewCheckoutUsecase(s)
	opts := Options{
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"*"},
		RateLimiter:    limiter,
	}
	var metrics *handler.MetricsHandler
	if inst != nil {
		svc, err := observability.NewCheckoutService(checkout, observability.WithMeter(inst.Meter("checkout")))
		require.NoError(t, err)
		checkout = svc
		hm, err := observability.NewHTTPMetrics(inst.Meter("http"))
		require.NoError(t, err)
		opts.Metrics = hm
		metrics = handler.NewMetricsHandler(inst)
	}

	e := New(Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC, auth.NewCurrentUserUsecase(s.Users())),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Category:     handler.NewCategoryHandler(usecase.NewCategoryUsecase(s.Categories(), s.Products())),
		Cart:         handler.NewCartHandler(usecase.NewCartUsecase(s.Carts(), s.Products())),
		Order:        handler.NewOrderHandler(orderUC, checkout),
		AdminOrder:   handler.NewAdminOrderHandler(orderUC),
		Metrics:      metrics,
	}, opts)
	return &testApp{e: e, store: s}
}

func (a *testApp) do(t *testing.T, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) login(t *testing.T, username string, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out auth.LoginOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.AccessToken
}

func (a *testApp) customer(t *testing.T, username string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "s3cure-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return a.login(t, username, "s3cure-pass")
}

type productJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int64  `json:"stock"`
}

type orderJSON struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"user_id"`
	TotalPrice string `json:"total_price"`
	Status     string `json:"status"`
	Items      []struct {
		ProductID int64  `json:"product_id"`
		Quantity  int64  `json:"quantity"`
		Price     string `json:"price"`
	} `json:"items"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, rec).Error
}

// adminでカテゴリと商品を作る
func (a *testApp) seedProduct(t *testing.T, adminToken string, name string, price string, stock int64) productJSON {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/categories", adminToken, map[string]string{"name": "cat-" + name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decode[struct {
		ID int64 `json:"id"`
	}](t, rec)

	rec = a.do(t, http.MethodPost, "/products", adminToken, map[string]any{
		"name":        name,
		"price":       price,
		"stock":       stock,
		"category_id": cat.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[productJSON](t, rec)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t, nil)
	rec := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))
}

func TestRoot(t *testing.T) {
	a := newTestApp(t, nil)
	rec := a.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Welcome to E-commerce API","version":"1.0.0"}`, rec.Body.String())

	// 計測なしなら/metricsは無い
	rec = a.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_CountsRequestsAndCheckouts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	inst := &observability.Instruments{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Reader:        reader,
		Started:       time.Now(),
	}
	a := buildTestApp(t, nil, inst)

	adminToken := a.login(t, "admin", "admin-pass-1")
	p := a.seedProduct(t, adminToken, "Widget", "19.99", 10)
	token := a.customer(t, "alice")

	rec := a.do(t, http.MethodPost, "/orders/checkout", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/cart/add", token, map[string]any{"product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/orders/checkout", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodGet, "/products/999", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[observability.MetricsSnapshot](t, rec)

	// login x2, カテゴリと商品の作成, signup, checkout x2, cart追加, products/:id。/metrics自身は集計後
	assert.Equal(t, int64(9), snap.TotalRequests)
	assert.Equal(t, int64(0), snap.ErrorCount)
	assert.Equal(t, int64(2), snap.EndpointsHit["/orders/checkout"])
	assert.Equal(t, int64(1), snap.EndpointsHit["/products/:id"])
	assert.Equal(t, int64(1), snap.StatusCodes["404"])
	assert.Equal(t, int64(1), snap.CheckoutsCompleted)
	assert.Equal(t, int64(1), snap.CheckoutsFailed)
}

func TestAuthFlow(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.customer(t, "alice")

	rec := a.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "hashed_password")
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice", "email": "other@example.com", "password": "s3cure-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already registered", errorOf(t, rec))

	rec = a.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RegisterIsSignupAlias(t *testing.T) {
	a := newTestApp(t, nil)

	rec := a.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "bob", "email": "bob@example.com", "password": "s3cure-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"username":"bob"`)
	assert.Contains(t, rec.Body.String(), `"role":"customer"`)

	rec = a.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"username": "bob", "email": "bob2@example.com", "password": "s3cure-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already registered", errorOf(t, rec))
}

func TestAuth_LoginAcceptsFormBody(t *testing.T) {
	a := newTestApp(t, nil)
	a.customer(t, "carol")

	form := url.Values{"username": {"carol"}, "password": {"s3cure-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out auth.LoginOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.NotEmpty(t, out.AccessToken)

	rec = a.do(t, http.MethodGet, "/auth/me", out.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	form.Set("password", "wrong-pass")
	req = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec = httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnlyRoutes(t *testing.T) {
	a := newTestApp(t, nil)
	token := a.customer(t, "alice")

	rec := a.do(t, http.MethodPost, "/products", token, map[string]any{"name": "x", "price": "1", "category_id": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, "/categories", token, map[string]string{"name": "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodGet, "/orders/all", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = a.do(t, http.MethodPost, "/products", "", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogPublicReads(t *testing.T) {
	a := newTestApp(t, nil)
	adminToken := a.login(t, "admin", "admin-pass-1")
	p := a.seedProduct(t, adminToken, "Widget", "19.99", 10)

	rec := a.do(t, http.MethodGet, "/products/"+strconv.FormatInt(p.ID, 10), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[productJSON](t, rec)
	assert.Equal(t, "19.99", got.Price)

	rec = a.do(t, http.MethodGet, "/products?in_stock=true&max_price=20", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]productJSON](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/products?min_price=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/products/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "product not found", errorOf(t, rec))

	rec = a.do(t, http.MethodGet, "/products/categories/999/products", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/no/such/route", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, errorOf(t, rec))
}

func TestCartAndCheckoutFlow(t *testing.T) {
	a := newTestApp(t, nil)
	adminToken := a.login(t, "admin", "admin-pass-1")
	p := a.seedProduct(t, adminToken, "Widget", "19.99", 10)
	token := a.customer(t, "alice")
	pid := strconv.FormatInt(p.ID, 10)

	rec := a.do(t, http.MethodPost, "/orders/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart is empty", errorOf(t, rec))

	rec = a.do(t, http.MethodPost, "/cart/add", token, map[string]int64{"product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPut, "/cart/"+pid, token, map[string]int64{"quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/cart", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[struct {
		Total string `json:"total"`
	}](t, rec)
	assert.Equal(t, "39.98", cart.Total)

	rec = a.do(t, http.MethodPost, "/orders/checkout", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[orderJSON](t, rec)
	assert.Equal(t, "39.98", order.TotalPrice)
	assert.Equal(t, "pending", order.Status)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(2), order.Items[0].Quantity)

	rec = a.do(t, http.MethodGet, "/products/"+pid, "", nil)
	assert.Equal(t, int64(8), decode[productJSON](t, rec).Stock)

	rec = a.do(t, http.MethodDelete, "/cart/"+pid, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "cart item not found", errorOf(t, rec))

	oid := strconv.FormatInt(order.ID, 10)
	rec = a.do(t, http.MethodGet, "/orders/"+oid, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	other := a.customer(t, "bob")
	rec = a.do(t, http.MethodGet, "/orders/"+oid, other, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPut, "/orders/"+oid+"/status", adminToken, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "shipped", decode[orderJSON](t, rec).Status)

	rec = a.do(t, http.MethodPut, "/orders/"+oid+"/status", adminToken, map[string]string{"status": "lost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/orders/all", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderJSON](t, rec), 1)

	rec = a.do(t, http.MethodGet, "/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]orderJSON](t, rec), 1)
}

func TestCheckout_InsufficientStockMessage(t *testing.T) {
	a := newTestApp(t, nil)
	adminToken := a.login(t, "admin", "admin-pass-1")
	p := a.seedProduct(t, adminToken, "Widget", "1.00", 10)
	token := a.customer(t, "alice")

	rec := a.do(t, http.MethodPost, "/cart/add", token, map[string]int64{"product_id": p.ID, "quantity": 10})
	require.Equal(t, http.StatusCreated, rec.Code)

	//カート投入後に在庫が減った
	rec = a.do(t, http.MethodPut, "/products/"+strconv.FormatInt(p.ID, 10), adminToken, map[string]int64{"stock": 5})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/orders/checkout", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient stock for Widget. available: 5, requested: 10", errorOf(t, rec))
}

func TestCheckout_AdminForbidden(t *testing.T) {
	a := newTestApp(t, nil)
	adminToken := a.login(t, "admin", "admin-pass-1")

	rec := a.do(t, http.MethodPost, "/orders/checkout", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admins cannot checkout", errorOf(t, rec))
}

func TestCheckout_ConcurrentOverHTTP(t *testing.T) {
	a := newTestApp(t, nil)
	adminToken := a.login(t, "admin", "admin-pass-1")
	p := a.seedProduct(t, adminToken, "Last", "9.99", 1)

	tokens := []string{a.customer(t, "alice"), a.customer(t, "bobby")}
	for _, tok := range tokens {
		rec := a.do(t, http.MethodPost, "/cart/add", tok, map[string]int64{"product_id": p.ID, "quantity": 1})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	codes := make([]int, len(tokens))
	var wg sync.WaitGroup
	for i, tok := range tokens {
		wg.Add(1)
		go func(i int, tok string) {
			defer wg.Done()
			codes[i] = a.do(t, http.MethodPost, "/orders/checkout", tok, nil).Code
		}(i, tok)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusBadRequest}, codes)
	rec := a.do(t, http.MethodGet, "/products/"+strconv.FormatInt(p.ID, 10), "", nil)
	assert.Equal(t, int64(0), decode[productJSON](t, rec).Stock)
}

func TestRateLimiterApplied(t *testing.T) {
	a := newTestApp(t, middleware.NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/products", "", nil).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, a.do(t, http.MethodGet, "/products", "", nil).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Start(ctx, a.e, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
