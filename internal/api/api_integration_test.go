// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "yieldwallet/internal"
	"yieldwallet/internal/domain"
)

// testApp is the application under test; nil when no integration database is configured.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain boots the full application against a real PostgreSQL database when
// INTEGRATION_DB_NAME is set. Otherwise only the router tests run.
func TestMain(m *testing.M) {
	_ = godotenv.Load() // allow .env for local runs

	dbName := os.Getenv("INTEGRATION_DB_NAME")
	if dbName == "" {
		os.Exit(m.Run())
	}

	os.Setenv("DB_NAME", dbName)
	os.Setenv("ACCRUAL_ENABLED", "false")
	os.Setenv("RATE_LIMIT_RPS", "1000")
	os.Setenv("RATE_LIMIT_BURST", "1000")

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}
	testServer = httptest.NewServer(testApp.HTTPHandler)

	code := m.Run()

	testServer.Close()
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

func requireIntegration(t *testing.T) {
	t.Helper()
	if testApp == nil {
		t.Skip("INTEGRATION_DB_NAME not set; skipping integration test")
	}
}

// clearDatabase truncates all ledger tables so each test starts from an empty state.
func clearDatabase(t *testing.T) {
	tables := []string{"withdrawal_requests", "investment_positions", "transactions", "investment_plans", "wallets"}
	_, err := testApp.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE;", strings.Join(tables, ", ")))
	require.NoError(t, err)
}

// createWallet opens an empty wallet and funds it through the admin credit endpoint,
// so the ledger carries an entry for every unit of the balance.
func createWallet(t *testing.T, userID int64, opening decimal.Decimal) {
	resp, body := makeRequest(t, http.MethodPost, fmt.Sprintf("/wallets/%d", userID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	resp, body = makeRequest(t, http.MethodPost, fmt.Sprintf("/wallets/%d", userID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "opening twice is a no-op: %s", body)

	if opening.IsPositive() {
		resp, body := makeRequest(t, http.MethodPost, fmt.Sprintf("/admin/wallets/%d/credit", userID),
			strings.NewReader(fmt.Sprintf(`{"amount":"%s","description":"opening balance"}`, opening)))
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
	}
}

func createPlan(t *testing.T, price, daily int64, days int) int64 {
	var id int64
	err := testApp.DB.Get(&id,
		`INSERT INTO investment_plans (plan_name, price, duration_days, daily_profit, total_roi, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE) RETURNING id`,
		"Starter", price, days, daily, daily*int64(days)*100/price)
	require.NoError(t, err)
	return id
}

// makeRequest sends an HTTP request to the test server and returns the response with its body read.
func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func decodeData(t *testing.T, body string, dst interface{}) {
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	require.True(t, env.Success, body)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func balanceOf(t *testing.T, userID int64) decimal.Decimal {
	resp, body := makeRequest(t, http.MethodGet, fmt.Sprintf("/wallets/%d", userID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var wallet domain.Wallet
	decodeData(t, body, &wallet)
	return wallet.Balance
}

func assertReconciled(t *testing.T, userID int64) {
	resp, body := makeRequest(t, http.MethodGet, fmt.Sprintf("/wallets/%d/reconciliation", userID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	var rec domain.Reconciliation
	decodeData(t, body, &rec)
	assert.True(t, rec.Balanced, "stored balance %s differs from ledger %s", rec.Balance, rec.LedgerBalance)
}

func TestPurchaseAndAccrualIntegration(t *testing.T) {
	requireIntegration(t)
	clearDatabase(t)
	createWallet(t, 1, decimal.NewFromInt(500))
	planID := createPlan(t, 300, 20, 10)

	resp, body := makeRequest(t, http.MethodPost, "/wallets/1/plans", strings.NewReader(fmt.Sprintf(`{"plan_id":%d}`, planID)))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.True(t, decimal.NewFromInt(200).Equal(balanceOf(t, 1)))

	t.Run("InsufficientBalance", func(t *testing.T) {
		resp, body := makeRequest(t, http.MethodPost, "/wallets/1/plans", strings.NewReader(fmt.Sprintf(`{"plan_id":%d}`, planID)))
		assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
		assert.Contains(t, body, "Insufficient balance")
		assert.True(t, decimal.NewFromInt(200).Equal(balanceOf(t, 1)))
	})

	t.Run("AccrualPaysOncePerDay", func(t *testing.T) {
		tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(domain.DateLayout)
		runBody := fmt.Sprintf(`{"run_date":"%s"}`, tomorrow)

		resp, body := makeRequest(t, http.MethodPost, "/admin/accrual/runs", strings.NewReader(runBody))
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		var report domain.AccrualReport
		decodeData(t, body, &report)
		assert.Equal(t, 1, report.Processed)
		assert.True(t, decimal.NewFromInt(220).Equal(balanceOf(t, 1)))

		resp, body = makeRequest(t, http.MethodPost, "/admin/accrual/runs", strings.NewReader(runBody))
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		decodeData(t, body, &report)
		assert.Equal(t, 0, report.Processed)
		assert.True(t, decimal.NewFromInt(220).Equal(balanceOf(t, 1)))
	})

	assertReconciled(t, 1)
}

func TestWithdrawalWorkflowIntegration(t *testing.T) {
	requireIntegration(t)
	clearDatabase(t)
	createWallet(t, 2, decimal.NewFromInt(400))
	bank := `"bank_name":"First Bank","account_number":"0123456789","account_name":"Ada Obi"`

	request := func(amount string) int64 {
		resp, body := makeRequest(t, http.MethodPost, "/wallets/2/withdrawals",
			strings.NewReader(fmt.Sprintf(`{"amount":"%s",%s}`, amount, bank)))
		require.Equal(t, http.StatusCreated, resp.StatusCode, body)
		var result struct {
			Request domain.WithdrawalRequest `json:"request"`
		}
		decodeData(t, body, &result)
		return result.Request.ID
	}

	first := request("150")
	second := request("100")
	assert.True(t, decimal.NewFromInt(150).Equal(balanceOf(t, 2)))

	resp, body := makeRequest(t, http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/approve", first), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, decimal.NewFromInt(150).Equal(balanceOf(t, 2)))

	resp, body = makeRequest(t, http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/reject", second),
		strings.NewReader(`{"notes":"account name mismatch"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, decimal.NewFromInt(250).Equal(balanceOf(t, 2)))

	// A processed request cannot be reviewed again.
	resp, _ = makeRequest(t, http.MethodPost, fmt.Sprintf("/admin/withdrawals/%d/reject", first), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	assertReconciled(t, 2)
}

func TestCheckinAndRechargeIntegration(t *testing.T) {
	requireIntegration(t)
	clearDatabase(t)
	createWallet(t, 3, decimal.Zero)

	resp, body := makeRequest(t, http.MethodPost, "/wallets/3/checkin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	resp, _ = makeRequest(t, http.MethodPost, "/wallets/3/checkin", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = makeRequest(t, http.MethodPost, "/wallets/3/recharges", strings.NewReader(`{"amount":"75"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	var pending struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	decodeData(t, body, &pending)
	before := balanceOf(t, 3)

	resp, body = makeRequest(t, http.MethodPost, fmt.Sprintf("/admin/recharges/%d/approve", pending.Transaction.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.True(t, before.Add(decimal.NewFromInt(75)).Equal(balanceOf(t, 3)))

	resp, _ = makeRequest(t, http.MethodGet, "/wallets/999/", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	assertReconciled(t, 3)
}
