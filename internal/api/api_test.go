package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dkralj/bloodbank/internal/db"
	"github.com/dkralj/bloodbank/internal/model"
	"github.com/dkralj/bloodbank/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin)

	return server, login(t, server, "admin", "password")
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, wantStatus int, target any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected %d, got %d", req.Method, req.URL.Path, wantStatus, resp.StatusCode)
	}
	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
	}
}

func createTestBank(t *testing.T, server *httptest.Server, token, name string) int64 {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/api/banks", token, map[string]string{
		"name":    name,
		"address": "1 Main St",
	})
	var bank model.BloodBank
	doJSON(t, req, http.StatusCreated, &bank)
	return bank.ID
}

func createTestDonor(t *testing.T, server *httptest.Server, token, name, email, group string) int64 {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/api/donors", token, map[string]any{
		"name":         name,
		"email":        email,
		"phone_number": "555-0100",
		"age":          30,
		"blood_type":   group,
	})
	var donor model.Donor
	doJSON(t, req, http.StatusCreated, &donor)
	return donor.ID
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedRejected(t *testing.T) {
	server, _ := setupTestServer(t)

	for _, path := range []string{"/api/banks", "/api/donations", "/api/inventory"} {
		resp, err := http.Get(server.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s without token: expected 401, got %d", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestBanksAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	bankID := createTestBank(t, server, token, "Central Blood Bank")

	req, _ := authRequest("GET", server.URL+"/api/banks", token, nil)
	var banks []model.BloodBank
	doJSON(t, req, http.StatusOK, &banks)
	if len(banks) != 1 || banks[0].Name != "Central Blood Bank" {
		t.Fatalf("unexpected bank list: %+v", banks)
	}
	if banks[0].TotalUnits != 0 {
		t.Errorf("new bank should have 0 total units, got %d", banks[0].TotalUnits)
	}

	req, _ = authRequest("PUT", server.URL+"/api/banks/"+itoa(bankID), token, map[string]string{
		"name":    "Central Blood Bank",
		"address": "2 Side St",
	})
	var updated model.BloodBank
	doJSON(t, req, http.StatusOK, &updated)
	if updated.Address != "2 Side St" {
		t.Errorf("expected updated address, got %q", updated.Address)
	}

	req, _ = authRequest("DELETE", server.URL+"/api/banks/"+itoa(bankID), token, nil)
	doJSON(t, req, http.StatusOK, nil)
}

func TestDonationAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	bankID := createTestBank(t, server, token, "City Bank")
	donorID := createTestDonor(t, server, token, "Ana Novak", "ana@example.com", "A+")

	req, _ := authRequest("POST", server.URL+"/api/donations", token, map[string]any{
		"donor_id": donorID,
		"bank_id":  bankID,
		"units":    2,
	})
	var donation model.Donation
	doJSON(t, req, http.StatusCreated, &donation)
	if donation.BloodGroup != "A+" || donation.Units != 2 {
		t.Fatalf("unexpected donation: %+v", donation)
	}

	// Stock should now show in the ledger.
	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	var inventory []model.Inventory
	doJSON(t, req, http.StatusOK, &inventory)
	if len(inventory) != 1 || inventory[0].Units != 2 {
		t.Fatalf("unexpected inventory: %+v", inventory)
	}

	// A second donation inside the waiting period is refused with the days
	// remaining in the payload.
	req, _ = authRequest("POST", server.URL+"/api/donations", token, map[string]any{
		"donor_id": donorID,
		"bank_id":  bankID,
		"units":    1,
	})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("donation request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for too-soon donation, got %d", resp.StatusCode)
	}
	var payload map[string]any
	json.NewDecoder(resp.Body).Decode(&payload)
	if days, ok := payload["days_remaining"].(float64); !ok || days != 90 {
		t.Errorf("expected days_remaining 90, got %v", payload["days_remaining"])
	}
}

func TestRequestAPIFlow(t *testing.T) {
	server, token := setupTestServer(t)

	bankID := createTestBank(t, server, token, "Region Bank")
	donorID := createTestDonor(t, server, token, "Bor Kos", "bor@example.com", "O-")

	req, _ := authRequest("POST", server.URL+"/api/donations", token, map[string]any{
		"donor_id": donorID,
		"bank_id":  bankID,
		"units":    5,
	})
	doJSON(t, req, http.StatusCreated, nil)

	// Public submission, no token.
	body, _ := json.Marshal(map[string]any{
		"requester_name": "Dr. Lah",
		"blood_group":    "O-",
		"units":          3,
		"hospital_name":  "General Hospital",
		"contact_number": "555-0123",
	})
	resp, err := http.Post(server.URL+"/api/requests", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("submitting request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var request model.BloodRequest
	json.NewDecoder(resp.Body).Decode(&request)
	if request.Status != model.RequestApproved {
		t.Fatalf("expected approved request, got %q", request.Status)
	}
	if request.BankID == nil || *request.BankID != bankID {
		t.Errorf("expected bank %d assigned, got %v", bankID, request.BankID)
	}

	// The match consumed the stock.
	req, _ = authRequest("GET", server.URL+"/api/inventory", token, nil)
	var inventory []model.Inventory
	doJSON(t, req, http.StatusOK, &inventory)
	if len(inventory) != 1 || inventory[0].Units != 2 {
		t.Fatalf("expected 2 units left, got %+v", inventory)
	}

	// Complete the approved request.
	req, _ = authRequest("PUT", server.URL+"/api/requests/"+itoa(request.ID)+"/status", token,
		map[string]string{"status": model.RequestCompleted})
	var completed model.BloodRequest
	doJSON(t, req, http.StatusOK, &completed)
	if completed.Status != model.RequestCompleted {
		t.Errorf("expected completed, got %q", completed.Status)
	}
}

func TestRequestWithoutStockStaysPending(t *testing.T) {
	server, token := setupTestServer(t)

	body, _ := json.Marshal(map[string]any{
		"requester_name": "Dr. Zupan",
		"blood_group":    "AB-",
		"units":          2,
		"hospital_name":  "Valley Clinic",
		"contact_number": "555-0456",
	})
	resp, err := http.Post(server.URL+"/api/requests", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("submitting request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 even with no stock, got %d", resp.StatusCode)
	}
	var request model.BloodRequest
	json.NewDecoder(resp.Body).Decode(&request)
	if request.Status != model.RequestPending {
		t.Fatalf("expected pending, got %q", request.Status)
	}

	// Staff can see it in the pending queue.
	req, _ := authRequest("GET", server.URL+"/api/requests?status=pending", token, nil)
	var pending []model.BloodRequest
	doJSON(t, req, http.StatusOK, &pending)
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}

	// Approving without stock leaves it pending.
	req, _ = authRequest("POST", server.URL+"/api/requests/"+itoa(request.ID)+"/approve", token, nil)
	var after model.BloodRequest
	doJSON(t, req, http.StatusOK, &after)
	if after.Status != model.RequestPending {
		t.Errorf("expected still pending, got %q", after.Status)
	}
}

func TestRequestValidationOverAPI(t *testing.T) {
	server, _ := setupTestServer(t)

	cases := []map[string]any{
		{"requester_name": "Dr. A", "hospital_name": "H", "contact_number": "1", "blood_group": "A+", "units": 0},
		{"requester_name": "Dr. A", "hospital_name": "H", "contact_number": "1", "blood_group": "A+", "units": 11},
		{"requester_name": "Dr. A", "hospital_name": "H", "contact_number": "1", "blood_group": "X+", "units": 3},
	}
	for _, payload := range cases {
		body, _ := json.Marshal(payload)
		resp, err := http.Post(server.URL+"/api/requests", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("submitting request: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("payload %v: expected 400, got %d", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestDonorRoleRestrictions(t *testing.T) {
	server, adminToken := setupTestServer(t)

	// Self-registered account gets the donor role.
	body, _ := json.Marshal(map[string]string{"username": "donor1", "password": "password123"})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()
	donorToken := login(t, server, "donor1", "password123")

	// Donor-role users cannot manage banks or see the request queue.
	req, _ := authRequest("POST", server.URL+"/api/banks", donorToken, map[string]string{
		"name": "Rogue Bank", "address": "Nowhere",
	})
	r1, _ := http.DefaultClient.Do(req)
	if r1.StatusCode != http.StatusForbidden {
		t.Errorf("bank create as donor: expected 403, got %d", r1.StatusCode)
	}
	r1.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/requests", donorToken, nil)
	r2, _ := http.DefaultClient.Do(req)
	if r2.StatusCode != http.StatusForbidden {
		t.Errorf("request list as donor: expected 403, got %d", r2.StatusCode)
	}
	r2.Body.Close()

	// But they can register their own donor profile and read it back.
	req, _ = authRequest("POST", server.URL+"/api/donors", donorToken, map[string]any{
		"name":         "Eva Kralj",
		"email":        "eva@example.com",
		"phone_number": "555-0789",
		"age":          25,
		"blood_type":   "B+",
	})
	var donor model.Donor
	doJSON(t, req, http.StatusCreated, &donor)

	req, _ = authRequest("GET", server.URL+"/api/donors/me", donorToken, nil)
	var me model.Donor
	doJSON(t, req, http.StatusOK, &me)
	if me.ID != donor.ID {
		t.Errorf("expected own profile %d, got %d", donor.ID, me.ID)
	}

	// Registering twice conflicts.
	req, _ = authRequest("POST", server.URL+"/api/donors", donorToken, map[string]any{
		"name":         "Eva Kralj",
		"email":        "eva2@example.com",
		"phone_number": "555-0789",
		"age":          25,
		"blood_type":   "B+",
	})
	r3, _ := http.DefaultClient.Do(req)
	if r3.StatusCode != http.StatusConflict {
		t.Errorf("duplicate profile: expected 409, got %d", r3.StatusCode)
	}
	r3.Body.Close()

	// Admin can see the donor in the listing.
	req, _ = authRequest("GET", server.URL+"/api/donors", adminToken, nil)
	var donors []model.Donor
	doJSON(t, req, http.StatusOK, &donors)
	if len(donors) != 1 {
		t.Errorf("expected 1 donor, got %d", len(donors))
	}
}

func TestDonorRecordsOwnDonation(t *testing.T) {
	server, adminToken := setupTestServer(t)

	bankID := createTestBank(t, server, adminToken, "North Bank")

	body, _ := json.Marshal(map[string]string{"username": "donor2", "password": "password123"})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	donorToken := login(t, server, "donor2", "password123")

	req, _ := authRequest("POST", server.URL+"/api/donors", donorToken, map[string]any{
		"name":         "Jan Zajc",
		"email":        "jan@example.com",
		"phone_number": "555-0111",
		"age":          40,
		"blood_type":   "AB+",
	})
	doJSON(t, req, http.StatusCreated, nil)

	// No donor_id needed: the profile linked to the account is used, and the
	// group comes from the registered blood type.
	req, _ = authRequest("POST", server.URL+"/api/donations", donorToken, map[string]any{
		"bank_id": bankID,
		"units":   1,
	})
	var donation model.Donation
	doJSON(t, req, http.StatusCreated, &donation)
	if donation.BloodGroup != "AB+" {
		t.Errorf("expected AB+ from profile, got %q", donation.BloodGroup)
	}

	// The donor's history lists it.
	req, _ = authRequest("GET", server.URL+"/api/donations", donorToken, nil)
	var donations []model.Donation
	doJSON(t, req, http.StatusOK, &donations)
	if len(donations) != 1 {
		t.Errorf("expected 1 donation in own history, got %d", len(donations))
	}
}

func TestInventorySearchEndpoint(t *testing.T) {
	server, token := setupTestServer(t)

	bank1 := createTestBank(t, server, token, "Bank One")
	bank2 := createTestBank(t, server, token, "Bank Two")

	donor1 := createTestDonor(t, server, token, "D One", "d1@example.com", "O+")
	donor2 := createTestDonor(t, server, token, "D Two", "d2@example.com", "O+")

	for _, d := range []struct {
		donor, bank int64
		units       int
	}{{donor1, bank1, 2}, {donor2, bank2, 6}} {
		req, _ := authRequest("POST", server.URL+"/api/donations", token, map[string]any{
			"donor_id": d.donor,
			"bank_id":  d.bank,
			"units":    d.units,
		})
		doJSON(t, req, http.StatusCreated, nil)
	}

	req, _ := authRequest("GET", server.URL+"/api/inventory/search?blood_group=O%2B&units=5", token, nil)
	var matches []model.Inventory
	doJSON(t, req, http.StatusOK, &matches)
	if len(matches) != 1 || matches[0].BankID != bank2 {
		t.Fatalf("expected only bank %d, got %+v", bank2, matches)
	}

	req, _ = authRequest("GET", server.URL+"/api/inventory/search?blood_group=XX&units=1", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid group: expected 400, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	doJSON(t, req, http.StatusOK, nil)

	req, _ = authRequest("GET", server.URL+"/api/banks", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("revoked token: expected 401, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
