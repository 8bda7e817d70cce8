package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/counterline/pos/internal/app"
	"github.com/counterline/pos/internal/app/domain/order"
	"github.com/counterline/pos/internal/app/metrics"
	"github.com/counterline/pos/internal/app/services/reports"
	"github.com/counterline/pos/internal/app/services/settlement"
	"github.com/counterline/pos/internal/posapi"
	"github.com/counterline/pos/internal/session"
)

// handler bundles the terminal-facing HTTP endpoints.
type handler struct {
	app *app.Application
}

// =============================================================================
// Session handlers
// =============================================================================

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID int64 `json:"storeId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.StoreID == 0 {
		jsonError(w, "storeId is required", http.StatusBadRequest)
		return
	}

	token, err := h.app.Sessions.Issue(req.StoreID)
	if err != nil {
		jsonError(w, "failed to issue credential", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.app.Sessions.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"storeId": req.StoreID})
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// =============================================================================
// Settlement handlers
// =============================================================================

func (h *handler) startSettlement(w http.ResponseWriter, r *http.Request) {
	var cart order.Cart
	if err := json.NewDecoder(r.Body).Decode(&cart); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if len(cart.Items) == 0 {
		jsonError(w, "cart has no items", http.StatusBadRequest)
		return
	}

	id, sess := h.app.Settlements.Start(cart)
	writeJSON(w, http.StatusCreated, stateResponse(id, sess))
}

func (h *handler) addCash(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := sess.AddCash(req.Amount); err != nil {
		h.settlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(id, sess))
}

func (h *handler) setCash(w http.ResponseWriter, r *http.Request) {
	h.tenderInput(w, r, func(sess *settlement.Session, input string) error {
		return sess.SetCash(input)
	})
}

func (h *handler) setSplit(w http.ResponseWriter, r *http.Request) {
	h.tenderInput(w, r, func(sess *settlement.Session, input string) error {
		return sess.SetSplit(input)
	})
}

func (h *handler) tenderInput(w http.ResponseWriter, r *http.Request, apply func(*settlement.Session, string) error) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := apply(sess, req.Input); err != nil {
		h.settlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(id, sess))
}

func (h *handler) resetCash(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.ResetCash(); err != nil {
		h.settlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(id, sess))
}

func (h *handler) toggleSplit(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.ToggleSplit(); err != nil {
		h.settlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(id, sess))
}

func (h *handler) confirmCard(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.ConfirmCard(r.Context()); err != nil {
		h.settlementError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(id, sess))
}

func (h *handler) finalize(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}

	result, err := sess.Finalize(r.Context())
	if err != nil {
		if errors.Is(err, posapi.ErrAlreadyPaid) {
			metrics.RecordPayment("conflict")
			h.app.Settlements.Release(id)
			jsonErrorCode(w, "ALREADY_PAYMENT", "order already paid elsewhere", http.StatusConflict)
			return
		}
		var insufficient *settlement.InsufficientError
		switch {
		case errors.As(err, &insufficient):
			jsonError(w, insufficient.Error(), http.StatusBadRequest)
		case errors.Is(err, settlement.ErrFinalizeInFlight):
			jsonError(w, err.Error(), http.StatusConflict)
		default:
			metrics.RecordPayment("error")
			jsonError(w, err.Error(), http.StatusBadGateway)
		}
		return
	}

	metrics.RecordPayment("success")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": id,
		"paymentId": result.PaymentID,
		"changeDue": result.ChangeDue,
		"state":     sess.State(),
	})
}

func (h *handler) receiptChoice(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Print bool `json:"print"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request", http.StatusBadRequest)
		return
	}

	if !req.Print {
		if err := sess.SkipReceipt(); err != nil {
			h.settlementError(w, err)
			return
		}
		h.app.Settlements.Release(id)
		writeJSON(w, http.StatusOK, map[string]string{"status": "skipped"})
		return
	}

	rec, rendered, err := sess.PrintReceipt(r.Context())
	h.app.Settlements.Release(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"receipt":  rec,
		"rendered": rendered,
	})
}

func (h *handler) cancelSettlement(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Cancel(r.Context()); err != nil {
		h.settlementError(w, err)
		return
	}
	h.app.Settlements.Release(id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *handler) settlementState(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResponse(id, sess))
}

func (h *handler) session(w http.ResponseWriter, r *http.Request) (*settlement.Session, string, bool) {
	id := mux.Vars(r)["id"]
	sess, err := h.app.Settlements.Get(id)
	if err != nil {
		jsonError(w, err.Error(), http.StatusNotFound)
		return nil, "", false
	}
	return sess, id, true
}

func (h *handler) settlementError(w http.ResponseWriter, err error) {
	if errors.Is(err, settlement.ErrWrongState) {
		jsonError(w, err.Error(), http.StatusConflict)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

func stateResponse(id string, sess *settlement.Session) map[string]interface{} {
	return map[string]interface{}{
		"sessionId":        id,
		"state":            sess.State(),
		"initialTotal":     sess.InitialTotal(),
		"cashTendered":     sess.CashTendered(),
		"splitTendered":    sess.SplitTendered(),
		"remainingBalance": sess.RemainingBalance(),
		"changeDue":        sess.ChangeDue(),
	}
}

// =============================================================================
// Report handlers
// =============================================================================

func (h *handler) reportSummaries(w http.ResponseWriter, r *http.Request) {
	storeID, err := queryInt64(r, "storeId")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	summaries, err := h.app.Reports.Summaries(r.Context(), storeID, queryStatus(r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) reportDaily(w http.ResponseWriter, r *http.Request) {
	storeID, err := queryInt64(r, "storeId")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		jsonError(w, "date is required", http.StatusBadRequest)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))

	result, err := h.app.Reports.Daily(r.Context(), storeID, date, page, size, queryStatus(r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) reportSearch(w http.ResponseWriter, r *http.Request) {
	storeID, err := queryInt64(r, "storeId")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	start, err := time.Parse("2006-01-02", r.URL.Query().Get("startDate"))
	if err != nil {
		jsonError(w, "startDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("endDate"))
	if err != nil {
		jsonError(w, "endDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summaries, err := h.app.Reports.Search(r.Context(), storeID, start, end, queryStatus(r))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) reportReceipt(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(mux.Vars(r)["orderId"], 10, 64)
	if err != nil {
		jsonError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	rec, rendered, err := h.app.Reports.ReceiptForOrder(r.Context(), orderID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"receipt":  rec,
		"rendered": rendered,
	})
}

func (h *handler) refund(w http.ResponseWriter, r *http.Request) {
	paymentID, err := strconv.ParseInt(mux.Vars(r)["paymentId"], 10, 64)
	if err != nil {
		jsonError(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	if err := h.app.Reports.Refund(r.Context(), paymentID); err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	metrics.RecordRefund()
	writeJSON(w, http.StatusOK, map[string]string{"status": "refunded"})
}

func queryStatus(r *http.Request) reports.Status {
	if r.URL.Query().Get("status") == string(reports.StatusCancelled) {
		return reports.StatusCancelled
	}
	return reports.StatusSuccess
}

func queryInt64(r *http.Request, key string) (int64, error) {
	value, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	if err != nil || value == 0 {
		return 0, errors.New(key + " is required")
	}
	return value, nil
}

// =============================================================================
// Utility helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

func jsonErrorCode(w http.ResponseWriter, code, message string, status int) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
