//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// newCart creates a cart and returns its id.
func newCart(t *testing.T) string {
	t.Helper()

	resp := doAuthed(t, http.MethodPost, "/api/cart", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create cart: expected 201, got %d", resp.StatusCode)
	}
	return decodeJSON[cartResponse](t, resp).ID
}

func addItem(t *testing.T, cartID, productID string) {
	t.Helper()

	resp := doAuthed(t, http.MethodPost, "/api/cart/"+cartID+"/items", map[string]any{
		"productId": productID,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add item %s: expected 200, got %d", productID, resp.StatusCode)
	}
}

func TestCartPricing(t *testing.T) {
	cartID := newCart(t)
	addItem(t, cartID, "croissant")

	// Three croissants at 15.99 with a 10% line discount and 8% tax.
	resp := doAuthed(t, http.MethodPut, "/api/cart/"+cartID+"/items/croissant", map[string]any{
		"quantity":        3,
		"discountPercent": 10,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cart := decodeJSON[cartResponse](t, resp)
	if cart.Totals.Subtotal != 43.17 {
		t.Errorf("subtotal: got %v, want 43.17", cart.Totals.Subtotal)
	}
	if cart.Totals.TaxAmount != 3.45 {
		t.Errorf("taxAmount: got %v, want 3.45", cart.Totals.TaxAmount)
	}
	if cart.Totals.GrandTotal != 46.63 {
		t.Errorf("grandTotal: got %v, want 46.63", cart.Totals.GrandTotal)
	}
}

func TestCartUnknownProduct(t *testing.T) {
	cartID := newCart(t)

	resp := doAuthed(t, http.MethodPost, "/api/cart/"+cartID+"/items", map[string]any{
		"productId": "no-such-sku",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestRegisterFlow(t *testing.T) {
	// Open with a 200.00 float.
	resp := doAuthed(t, http.MethodPost, "/api/register", map[string]any{"openingFloat": 200.00})
	session := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	if session.Status != "open" {
		t.Fatalf("status: got %q, want open", session.Status)
	}
	if session.ExpectedCash != 200 {
		t.Fatalf("expectedCash: got %v, want 200", session.ExpectedCash)
	}

	// Sell one espresso: 2.50 + 8% tax = 2.70, cash tendered.
	cartID := newCart(t)
	addItem(t, cartID, "espresso")

	resp = doAuthed(t, http.MethodPost, "/api/register/"+session.ID+"/sales", map[string]any{
		"cartId":  cartID,
		"tenders": map[string]any{"cash": 2.70},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("post sale: expected 201, got %d", resp.StatusCode)
	}
	sale := decodeJSON[saleResponse](t, resp)
	resp.Body.Close()

	if sale.GrandTotal != 2.7 {
		t.Errorf("sale grandTotal: got %v, want 2.7", sale.GrandTotal)
	}

	// The cart is consumed by the completed sale.
	resp = doGet(t, "/api/cart/"+cartID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("completed cart: expected 404, got %d", resp.StatusCode)
	}

	// Live snapshot reflects the posting.
	resp = doGet(t, "/api/register/"+session.ID)
	snap := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	if snap.TransactionCount != 1 {
		t.Errorf("transactionCount: got %d, want 1", snap.TransactionCount)
	}
	if snap.ExpectedCash != 202.7 {
		t.Errorf("expectedCash: got %v, want 202.7", snap.ExpectedCash)
	}

	// Close with an exact drawer count.
	resp = doAuthed(t, http.MethodPost, "/api/register/"+session.ID+"/close", map[string]any{
		"countedCash": 202.70,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: expected 200, got %d", resp.StatusCode)
	}
	report := decodeJSON[closeReportResponse](t, resp)
	resp.Body.Close()

	if report.Variance != 0 {
		t.Errorf("variance: got %v, want 0", report.Variance)
	}
	if report.TotalSales != 2.7 {
		t.Errorf("totalSales: got %v, want 2.7", report.TotalSales)
	}
	if report.TransactionCount != 1 {
		t.Errorf("transactionCount: got %d, want 1", report.TransactionCount)
	}

	// Close is terminal.
	resp = doAuthed(t, http.MethodPost, "/api/register/"+session.ID+"/close", map[string]any{
		"countedCash": 202.70,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second close: expected 409, got %d", resp.StatusCode)
	}
}

func TestRegisterTenderMismatch(t *testing.T) {
	resp := doAuthed(t, http.MethodPost, "/api/register", map[string]any{"openingFloat": 0})
	session := decodeJSON[sessionResponse](t, resp)
	resp.Body.Close()

	cartID := newCart(t)
	addItem(t, cartID, "espresso")

	resp = doAuthed(t, http.MethodPost, "/api/register/"+session.ID+"/sales", map[string]any{
		"cartId":  cartID,
		"tenders": map[string]any{"cash": 1.00},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// The cart survives the failed posting.
	resp = doGet(t, "/api/cart/"+cartID)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("cart after failed sale: expected 200, got %d", resp.StatusCode)
	}
}

func TestMutationRequiresAPIKey(t *testing.T) {
	resp := doUnauthed(t, http.MethodPost, "/api/register", map[string]any{"openingFloat": 100})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
