//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/scalpi-pos/api/internal/config"
	"github.com/scalpi-pos/api/internal/database"
	"github.com/scalpi-pos/api/internal/enum"
	"github.com/scalpi-pos/api/internal/router"
	"github.com/scalpi-pos/api/internal/ws"
)

// TestIntegrationFlow runs sales, webhook postings and the derived reports
// against a real PostgreSQL database through the full router.
func TestIntegrationFlow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgContainer, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		Port:        "8081",
		DatabaseURL: connStr,
		JWTSecret:   "integration-test-secret",
		Timezone:    "UTC",
	}
	queries := database.New(pool)
	hub := ws.NewHub(zap.NewNop())
	go hub.Run(ctx)

	r := router.New(router.Deps{
		Config:  cfg,
		Queries: queries,
		Pool:    pool,
		Hub:     hub,
		Logger:  zap.NewNop(),
	})
	server := httptest.NewServer(r)
	defer server.Close()

	// --- 1. Bootstrap owner user and log in ---
	createOwnerUser(t, ctx, queries)
	token := login(t, server, "owner@test.com", "password123")

	// --- 2. Cashless tax 5% ---
	expectStatus(t, server, "PUT", "/api/cashier/tax-cashless", map[string]interface{}{"percent": 5}, token, http.StatusOK)

	// --- 3. Registry: one employee at 10%, one owner ---
	expectStatus(t, server, "POST", "/api/employees", map[string]interface{}{
		"id": "101", "name": "Anna", "percent": "10",
	}, token, http.StatusCreated)
	expectStatus(t, server, "POST", "/api/employees", map[string]interface{}{
		"id": "1", "name": "Boss", "owner": true,
	}, token, http.StatusCreated)

	// --- 4. Assortment ---
	expectStatus(t, server, "POST", "/api/items", map[string]interface{}{
		"barcode": "4820001", "name": "Shampoo", "price": "200", "cost": "80", "stock": 5,
	}, token, http.StatusCreated)

	// --- 5. Employee sale: 2 x 200 cashless, posted as SALE net of tax ---
	expectStatus(t, server, "POST", "/api/sales", map[string]interface{}{
		"barcode": "4820001", "quantity": 2, "employee_id": "101", "payment_method": "CASHLESS",
	}, token, http.StatusCreated)

	// --- 6. Owner sale: no ledger row, half-cost debt instead ---
	expectStatus(t, server, "POST", "/api/sales", map[string]interface{}{
		"barcode": "4820001", "quantity": 1, "employee_id": "1", "payment_method": "CASH",
	}, token, http.StatusCreated)

	// --- 7. Overselling is rejected and leaves stock untouched ---
	expectStatus(t, server, "POST", "/api/sales", map[string]interface{}{
		"barcode": "4820001", "quantity": 10, "employee_id": "101", "payment_method": "CASH",
	}, token, http.StatusConflict)

	item := getObject(t, server, "/api/items/4820001", token)
	if item["stock"].(float64) != 2 {
		t.Fatalf("stock: got %v, want 2", item["stock"])
	}

	// --- 8. POS webhook posts a cash INCOME for Anna, redelivery is skipped ---
	event := map[string]interface{}{
		"resource": "finances_operation",
		"status":   "create",
		"data": map[string]interface{}{
			"id":      9001,
			"amount":  1000,
			"date":    time.Now().UTC().Format("2006-01-02 15:04:05"),
			"record":  map[string]interface{}{"staff_id": 101},
			"account": map[string]interface{}{"is_cash": true},
		},
	}
	if resp := webhook(t, server, event); resp["success"] != true {
		t.Fatalf("webhook create: %v", resp)
	}
	if resp := webhook(t, server, event); resp["skipped"] != true {
		t.Fatalf("webhook redelivery: %v", resp)
	}

	// --- 9. Cashier: cash 1000, cashless 380 (400 less 5%) ---
	cashier := getObject(t, server, "/api/cashier", token)
	if cashier["cash"] != "1000.00" || cashier["cashless"] != "380.00" {
		t.Fatalf("cashier: got %v", cashier)
	}

	// --- 10. Salary: (380 + 1000) * 10% ---
	salaries := getArray(t, server, "/api/reports/salaries", token)
	if len(salaries) != 1 || salaries[0]["employee"] != "Anna" || salaries[0]["total"] != "138.00" {
		t.Fatalf("salaries: got %v", salaries)
	}

	// --- 11. Owner debt: 80 * 1 / 2 ---
	debts := getArray(t, server, "/api/reports/debts", token)
	if len(debts) != 1 || debts[0]["employee"] != "Boss" || debts[0]["debt"] != "40.00" {
		t.Fatalf("debts: got %v", debts)
	}

	t.Logf("Integration test passed: container=%s", pgContainer.GetContainerID())
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("scalpi_test"),
		tcpostgres.WithUsername("pos"),
		tcpostgres.WithPassword("pos"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func createOwnerUser(t *testing.T, ctx context.Context, q *database.Queries) {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if _, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          "owner@test.com",
		HashedPassword: string(hashed),
		FullName:       "Test Owner",
		Role:           enum.UserRoleOwner,
	}); err != nil {
		t.Fatalf("create owner user: %v", err)
	}
}

// --- HTTP helpers ---

func login(t *testing.T, server *httptest.Server, email, password string) string {
	t.Helper()
	status, body := apiCall(t, server, "POST", "/auth/login", map[string]interface{}{
		"email":    email,
		"password": password,
	}, "")
	if status != http.StatusOK {
		t.Fatalf("login: status %d, body: %s", status, body)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	token, ok := resp["access_token"].(string)
	if !ok || token == "" {
		t.Fatalf("login failed: no access_token in response: %s", body)
	}
	return token
}

func webhook(t *testing.T, server *httptest.Server, event map[string]interface{}) map[string]interface{} {
	t.Helper()
	status, body := apiCall(t, server, "POST", "/webhooks/altegio", event, "")
	if status != http.StatusOK {
		t.Fatalf("webhook: status %d, body: %s", status, body)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode webhook: %v", err)
	}
	return resp
}

func expectStatus(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string, want int) {
	t.Helper()
	status, resp := apiCall(t, server, method, path, body, token)
	if status != want {
		t.Fatalf("%s %s: status %d, want %d, body: %s", method, path, status, want, resp)
	}
}

func getObject(t *testing.T, server *httptest.Server, path, token string) map[string]interface{} {
	t.Helper()
	status, body := apiCall(t, server, "GET", path, nil, token)
	if status != http.StatusOK {
		t.Fatalf("GET %s: status %d, body: %s", path, status, body)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func getArray(t *testing.T, server *httptest.Server, path, token string) []map[string]interface{} {
	t.Helper()
	status, body := apiCall(t, server, "GET", path, nil, token)
	if status != http.StatusOK {
		t.Fatalf("GET %s: status %d, body: %s", path, status, body)
	}
	var result []map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return result
}

func apiCall(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}, token string) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp.StatusCode, buf.Bytes()
}
