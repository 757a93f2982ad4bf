package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"pizzachain/core"
	"pizzachain/storage"
)

const (
	operatorHex = "0x0101010101010101010101010101010101010101"
	aliceHex    = "0x0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a0a"
	bobHex      = "0x0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	operator, err := parseAddress(operatorHex)
	if err != nil {
		t.Fatalf("parse operator: %v", err)
	}
	node, err := core.NewNode(storage.NewMemDB(), core.Config{
		Version:         1,
		PricePerPizza:   big.NewInt(7),
		RegistryEnabled: true,
		Operator:        operator,
	})
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	ts := httptest.NewServer(NewServer(node, nil, nil).Router())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, payload any, into any) int {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("encode request: %v", err)
		}
		body = bytes.NewBuffer(encoded)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func TestServerTipFlow(t *testing.T) {
	ts := newTestServer(t)

	var balance balanceResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/v1/accounts/"+aliceHex+"/credit", creditRequest{Amount: "100"}, &balance)
	if status != http.StatusOK {
		t.Fatalf("credit status %d", status)
	}
	if balance.Balance != "100" {
		t.Fatalf("expected funded balance 100, got %s", balance.Balance)
	}

	var created tipResponse
	status = doJSON(t, http.MethodPost, ts.URL+"/v1/tips", tipRequest{
		From: aliceHex, To: bobHex, Value: "7", Pizzas: 1, Message: "margherita",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("tip status %d", status)
	}
	if created.ID != 0 || created.Highlight != nil {
		t.Fatalf("unexpected tip response %+v", created)
	}

	var record tipRecord
	status = doJSON(t, http.MethodGet, ts.URL+"/v1/tips/0", nil, &record)
	if status != http.StatusOK {
		t.Fatalf("tip lookup status %d", status)
	}
	if record.From != aliceHex || record.To != bobHex || record.Pizzas != 1 {
		t.Fatalf("unexpected record %+v", record)
	}

	var ledgerBalance balanceResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/v1/balances/"+bobHex, nil, &ledgerBalance)
	if status != http.StatusOK || ledgerBalance.Balance != "7" {
		t.Fatalf("balance status %d, body %+v", status, ledgerBalance)
	}

	var highlight highlightResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/v1/highlights/pizza/"+aliceHex, nil, &highlight)
	if status != http.StatusOK || highlight.ID != 0 {
		t.Fatalf("highlight status %d, body %+v", status, highlight)
	}

	var submitters []string
	status = doJSON(t, http.MethodGet, ts.URL+"/v1/submitters", nil, &submitters)
	if status != http.StatusOK || len(submitters) != 1 || submitters[0] != aliceHex {
		t.Fatalf("submitters status %d, body %v", status, submitters)
	}
}

func TestServerTipRejections(t *testing.T) {
	ts := newTestServer(t)
	doJSON(t, http.MethodPost, ts.URL+"/v1/accounts/"+aliceHex+"/credit", creditRequest{Amount: "100"}, nil)

	// Underpaid.
	status := doJSON(t, http.MethodPost, ts.URL+"/v1/tips", tipRequest{
		From: aliceHex, To: bobHex, Value: "6", Pizzas: 1,
	}, nil)
	if status != http.StatusPaymentRequired {
		t.Fatalf("expected 402 for underpayment, got %d", status)
	}

	// First tip lands, the duplicate conflicts.
	if status := doJSON(t, http.MethodPost, ts.URL+"/v1/tips", tipRequest{
		From: aliceHex, To: bobHex, Value: "7", Pizzas: 1,
	}, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	status = doJSON(t, http.MethodPost, ts.URL+"/v1/tips", tipRequest{
		From: aliceHex, To: bobHex, Value: "7", Pizzas: 1,
	}, nil)
	if status != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate, got %d", status)
	}

	// Malformed address.
	status = doJSON(t, http.MethodPost, ts.URL+"/v1/tips", tipRequest{
		From: "0xnope", To: bobHex, Value: "7", Pizzas: 1,
	}, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad address, got %d", status)
	}
}

func TestServerOperatorRelays(t *testing.T) {
	ts := newTestServer(t)

	var applied highlightResponse
	status := doJSON(t, http.MethodPost, ts.URL+"/v1/highlights/content", contentHighlightRequest{
		Caller: operatorHex, Author: bobHex, ID: 42,
	}, &applied)
	if status != http.StatusOK || applied.ID != 42 {
		t.Fatalf("content highlight status %d, body %+v", status, applied)
	}

	status = doJSON(t, http.MethodPost, ts.URL+"/v1/highlights/content", contentHighlightRequest{
		Caller: aliceHex, Author: bobHex, ID: 7,
	}, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", status)
	}

	status = doJSON(t, http.MethodDelete, ts.URL+"/v1/highlights/content/"+bobHex, callerRequest{Caller: operatorHex}, nil)
	if status != http.StatusNoContent {
		t.Fatalf("expected 204 on removal, got %d", status)
	}
	status = doJSON(t, http.MethodGet, ts.URL+"/v1/highlights/content/"+bobHex, nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after removal, got %d", status)
	}
}

func TestServerOraclePrices(t *testing.T) {
	ts := newTestServer(t)

	status := doJSON(t, http.MethodGet, ts.URL+"/v1/oracle/prices/1", nil, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 before publish, got %d", status)
	}

	status = doJSON(t, http.MethodPut, ts.URL+"/v1/oracle/prices/1", priceRequest{
		Caller: operatorHex, Confidence: 95, Price: "12",
	}, nil)
	if status != http.StatusOK {
		t.Fatalf("publish status %d", status)
	}

	var record priceResponse
	status = doJSON(t, http.MethodGet, ts.URL+"/v1/oracle/prices/1", nil, &record)
	if status != http.StatusOK || record.Confidence != 95 || record.Price != "12" {
		t.Fatalf("price status %d, body %+v", status, record)
	}

	status = doJSON(t, http.MethodPut, ts.URL+"/v1/oracle/prices/1", priceRequest{
		Caller: aliceHex, Confidence: 1, Price: "1",
	}, nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger publish, got %d", status)
	}
}

func TestServerHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status %d", resp.StatusCode)
	}
}
