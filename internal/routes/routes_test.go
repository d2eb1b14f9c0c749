package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/bozor/internal/config"
	"github.com/example/bozor/internal/database"
	"github.com/example/bozor/internal/models"
	"github.com/example/bozor/internal/services"
	"github.com/example/bozor/internal/utils"
)

type testEnv struct {
	app      *fiber.App
	db       *gorm.DB
	region   models.Region
	category models.Category
}

func newTestEnv(t *testing.T, exposeOTP bool) *testEnv {
	t.Helper()

	db, err := database.Open("sqlite::memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppEnv:           "test",
		JWTAccessSecret:  "access-secret",
		JWTRefreshSecret: "refresh-secret",
		AccessTokenTTL:   time.Hour,
		RefreshTokenTTL:  24 * time.Hour,
		OTPSecret:        "otp-secret",
		OTPDigits:        4,
		OTPStep:          300 * time.Second,
		OTPExposeCode:    exposeOTP,
		MaxUploadMB:      1,
	}

	env := &testEnv{db: db}
	env.region = models.Region{Name: "Toshkent"}
	require.NoError(t, db.Create(&env.region).Error)
	env.category = models.Category{Name: "Drinks"}
	require.NoError(t, db.Create(&env.category).Error)

	env.app = NewApp(Dependencies{
		DB:        db,
		Config:    cfg,
		Tokens:    services.NewGormTokenStore(db),
		OTPSender: services.NoopOTPSender{},
		Uploads:   services.NewUploadService(t.TempDir(), cfg.MaxUploadMB),
	})
	return env
}

func (e *testEnv) createUser(t *testing.T, phone string, role models.Role) models.User {
	t.Helper()

	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)

	user := models.User{
		FullName:     "Test " + string(role),
		Phone:        phone,
		Email:        phone[1:] + "@example.com",
		PasswordHash: hash,
		Role:         role,
		RegionID:     e.region.ID,
	}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (e *testEnv) login(t *testing.T, phone string) (string, string) {
	t.Helper()

	var user models.User
	require.NoError(t, e.db.Where("phone = ?", phone).First(&user).Error)

	status, body := e.do(t, http.MethodPost, "/users/login", "", fiber.Map{"phone": phone, "email": user.Email, "password": "secret123"})
	require.Equal(t, http.StatusOK, status, body)
	return body["accesstoken"].(string), body["refreshtoken"].(string)
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t, true)

	status, body := env.do(t, http.MethodPost, "/users/send-otp", "", fiber.Map{"phone": "+998901112233", "email": "ali@example.com"})
	require.Equal(t, http.StatusOK, status, body)
	code, ok := body["otp"].(string)
	require.True(t, ok)
	assert.Len(t, code, 4)

	status, _ = env.do(t, http.MethodPost, "/users/verify-otp", "", fiber.Map{"phone": "+998901112233", "email": "ali@example.com", "otp": code})
	assert.Equal(t, http.StatusOK, status)

	register := fiber.Map{
		"fullName":  "Ali Valiyev",
		"phone":     "+998901112233",
		"email":     "ali@example.com",
		"password":  "secret123",
		"region_id": env.region.ID,
	}
	status, body = env.do(t, http.MethodPost, "/users/register", "", register)
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "USER", user["role"])
	assert.NotContains(t, user, "password_hash")

	status, _ = env.do(t, http.MethodPost, "/users/register", "", register)
	assert.Equal(t, http.StatusConflict, status)

	access, refresh := env.login(t, "+998901112233")
	assert.NotEmpty(t, access)

	status, body = env.do(t, http.MethodGet, "/users/me", access, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Ali Valiyev", body["data"].(map[string]interface{})["fullName"])

	status, body = env.do(t, http.MethodPost, "/users/refresh", "", fiber.Map{"token": refresh})
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["accesstoken"])

	status, _ = env.do(t, http.MethodPost, "/users/logout", "", fiber.Map{"token": refresh})
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPost, "/users/refresh", "", fiber.Map{"token": refresh})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, false, body["success"])
}

func TestSendOTPHidesCodeByDefault(t *testing.T) {
	env := newTestEnv(t, false)

	status, body := env.do(t, http.MethodPost, "/users/send-otp", "", fiber.Map{"phone": "+998901112233", "email": "ali@example.com"})
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, body, "otp")
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t, false)

	status, body := env.do(t, http.MethodPost, "/users/send-otp", "", fiber.Map{"phone": "12345", "email": "ali@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "phone must be a valid phone number", body["message"])

	status, _ = env.do(t, http.MethodPost, "/users/verify-otp", "", fiber.Map{"phone": "+998901112233", "email": "ali@example.com", "otp": "0000x"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t, false)
	env.createUser(t, "+998900000010", models.RoleUser)

	status, _ := env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"phone": "+998900000010", "email": "998900000010@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"phone": "+998900000099", "email": "998900000099@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"phone": "+998900000010", "email": "someone@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body := env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"phone": "+998900000010", "password": "secret123"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "email is required", body["message"])
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t, false)
	env.createUser(t, "+998900000001", models.RoleUser)
	env.createUser(t, "+998900000002", models.RoleSeller)
	env.createUser(t, "+998900000003", models.RoleSeller)
	env.createUser(t, "+998900000004", models.RoleAdmin)

	buyer, _ := env.login(t, "+998900000001")
	seller, _ := env.login(t, "+998900000002")
	rival, _ := env.login(t, "+998900000003")
	admin, _ := env.login(t, "+998900000004")

	status, _ := env.do(t, http.MethodGet, "/orders/my", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(t, http.MethodGet, "/orders/my", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	product := fiber.Map{"name": "Green tea", "description": "loose leaf", "category_id": env.category.ID, "price": 1500}

	status, _ = env.do(t, http.MethodPost, "/products", buyer, product)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodPost, "/products", seller, product)
	require.Equal(t, http.StatusCreated, status, body)
	productID := uint(body["data"].(map[string]interface{})["id"].(float64))
	path := fmt.Sprintf("/products/%d", productID)

	status, _ = env.do(t, http.MethodPatch, path, rival, fiber.Map{"price": 1})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodPatch, path, admin, fiber.Map{"price": 2000})
	require.Equal(t, http.StatusOK, status, body)
	assert.EqualValues(t, 2000, body["data"].(map[string]interface{})["price"])

	status, _ = env.do(t, http.MethodGet, "/users", buyer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodGet, "/users?limit=2", admin, nil)
	require.Equal(t, http.StatusOK, status)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 4, pagination["total_items"])
	assert.EqualValues(t, 2, pagination["items_per_page"])

	status, _ = env.do(t, http.MethodPost, "/categories", seller, fiber.Map{"name": "Snacks"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestSuperAdminCreation(t *testing.T) {
	env := newTestEnv(t, false)
	env.createUser(t, "+998900000001", models.RoleUser)
	env.createUser(t, "+998900000004", models.RoleAdmin)

	buyer, _ := env.login(t, "+998900000001")
	admin, _ := env.login(t, "+998900000004")

	payload := fiber.Map{
		"fullName":  "Boss Person",
		"phone":     "+998900000005",
		"email":     "boss@example.com",
		"password":  "secret123",
		"region_id": env.region.ID,
	}

	status, _ := env.do(t, http.MethodPost, "/users/superadmin", buyer, payload)
	assert.Equal(t, http.StatusForbidden, status)

	status, body := env.do(t, http.MethodPost, "/users/superadmin", admin, payload)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "SUPERADMIN", body["user"].(map[string]interface{})["role"])

	payload["phone"] = "+998900000006"
	payload["role"] = "ADMIN"
	status, _ = env.do(t, http.MethodPost, "/users/register", "", payload)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestOrderCheckout(t *testing.T) {
	env := newTestEnv(t, false)
	seller := env.createUser(t, "+998900000002", models.RoleSeller)
	env.createUser(t, "+998900000001", models.RoleUser)
	env.createUser(t, "+998900000007", models.RoleUser)
	env.createUser(t, "+998900000004", models.RoleAdmin)

	tea := models.Product{Name: "Tea", Price: 100, AuthorID: seller.ID, CategoryID: env.category.ID}
	coffee := models.Product{Name: "Coffee", Price: 50, AuthorID: seller.ID, CategoryID: env.category.ID}
	require.NoError(t, env.db.Create(&tea).Error)
	require.NoError(t, env.db.Create(&coffee).Error)

	buyer, _ := env.login(t, "+998900000001")
	other, _ := env.login(t, "+998900000007")
	admin, _ := env.login(t, "+998900000004")

	status, body := env.do(t, http.MethodPost, "/orders", buyer, fiber.Map{"products": []fiber.Map{
		{"product_id": tea.ID, "count": 2},
		{"product_id": coffee.ID, "count": 1},
		{"product_id": tea.ID, "count": 1},
	}})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 350, body["totalSumma"])
	assert.Len(t, body["orderedProducts"], 2)
	orderID := uint(body["order"].(map[string]interface{})["id"].(float64))

	status, body = env.do(t, http.MethodGet, "/orders/my", buyer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, _ = env.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), other, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(t, http.MethodGet, fmt.Sprintf("/orders/%d", orderID), admin, nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/orders/items/by-order/%d", orderID), buyer, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, _ = env.do(t, http.MethodGet, "/orders", buyer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.do(t, http.MethodGet, "/orders", admin, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total_items"])

	status, _ = env.do(t, http.MethodPost, "/orders", buyer, fiber.Map{"products": []fiber.Map{
		{"product_id": 9999, "count": 1},
	}})
	assert.Equal(t, http.StatusNotFound, status)

	var orders int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&orders).Error)
	assert.EqualValues(t, 1, orders)

	status, _ = env.do(t, http.MethodPost, "/orders", buyer, fiber.Map{"products": []fiber.Map{}})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/orders/%d", orderID), buyer, nil)
	assert.Equal(t, http.StatusNoContent, status)

	var items int64
	require.NoError(t, env.db.Model(&models.OrderItem{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestCommentsUpdateRating(t *testing.T) {
	env := newTestEnv(t, false)
	seller := env.createUser(t, "+998900000002", models.RoleSeller)
	env.createUser(t, "+998900000001", models.RoleUser)

	tea := models.Product{Name: "Tea", Price: 100, AuthorID: seller.ID, CategoryID: env.category.ID}
	require.NoError(t, env.db.Create(&tea).Error)

	buyer, _ := env.login(t, "+998900000001")

	status, body := env.do(t, http.MethodPost, "/comments", buyer, fiber.Map{"product_id": tea.ID, "message": "great", "star": 4})
	require.Equal(t, http.StatusCreated, status, body)

	status, _ = env.do(t, http.MethodPost, "/comments", buyer, fiber.Map{"product_id": tea.ID, "message": "bad", "star": 9})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/products/%d", tea.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	product := body["data"].(map[string]interface{})
	assert.EqualValues(t, 4, product["rating_average"])
	assert.EqualValues(t, 1, product["rating_count"])

	status, body = env.do(t, http.MethodGet, fmt.Sprintf("/comments/by-product/%d", tea.ID), "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)
}
