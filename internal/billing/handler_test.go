package billing

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/hisab-pos/hisab/internal/shared"
)

func newTestRouter(f *fixture, tenantID int64) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, f.service)

	r := chi.NewRouter()
	if tenantID != 0 {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := shared.ContextWithTenant(req.Context(), tenantID)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
	}
	r.Route("/bills", handler.MountRoutes)
	r.Get("/next-bill-number", handler.NextNumber)
	return r
}

const createBody = `{
	"bill": {"customer_name": "Ahmed Ali", "customer_phone": "0501234567", "subtotal": 200, "advance_paid": 10},
	"items": [{"product_name": "Kandura Stitching", "quantity": 2, "rate": 100}]
}`

func TestHandlerCreateBill(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(createBody))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res CreateBillResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Equal(t, "BILL-20260315-001", res.BillNumber)
	require.Equal(t, int64(210), res.LoyaltyPointsEarned)
}

func TestHandlerCreateBillRejectsEmptyItems(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	body := `{"bill": {"customer_phone": "0501234567", "subtotal": 10}, "items": []}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(body))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errBody map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	require.NotEmpty(t, errBody["error"])
}

func TestHandlerCreateBillRejectsBadJSON(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader("{not json"))
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRequiresTenant(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 0)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bills", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerGetBill(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(createBody))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var created CreateBillResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/bills/1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bill  Bill       `json:"bill"`
		Items []BillItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, created.BillNumber, body.Bill.BillNumber)
	require.Len(t, body.Items, 1)
}

func TestHandlerGetBillNotFound(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/bills/99", nil)
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUpdatePayment(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(createBody))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/bills/1/payment", strings.NewReader(`{"amount_paid": 200}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bill Bill `json:"bill"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, StatusPaid, body.Bill.Status)
}

func TestHandlerUpdatePaymentOverpaymentIs400(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(createBody))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/bills/1/payment", strings.NewReader(`{"amount_paid": 9999}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerNextNumber(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/next-bill-number", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "BILL-20260315-001", body["next_number"])
}

func TestHandlerDeleteBill(t *testing.T) {
	f := newFixture(1)
	router := newTestRouter(f, 1)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bills", strings.NewReader(createBody))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/bills/1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/bills/1", nil)
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
