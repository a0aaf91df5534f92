//go:build api
// +build api

// Package api contains tests that run against a real backend server.
// Run with: go test -tags=api ./tests/api/... -v
// Requires backend to be running on localhost:8080
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	defaultBaseURL = "http://localhost:8080"
	defaultAPIKey  = "test-api-key-for-development-only-32chars"
)

// APITestSuite is the test suite for real API endpoint testing
type APITestSuite struct {
	suite.Suite
	baseURL string
	apiKey  string
	client  *http.Client

	// Test data IDs for cleanup
	createdUserIDs      []uint
	createdRecipientIDs []uint
	createdMessageIDs   []uint
}

func TestAPIEndpoints(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (s *APITestSuite) SetupSuite() {
	s.baseURL = os.Getenv("API_BASE_URL")
	if s.baseURL == "" {
		s.baseURL = defaultBaseURL
	}

	s.apiKey = os.Getenv("API_KEY")
	if s.apiKey == "" {
		s.apiKey = defaultAPIKey
	}

	s.client = &http.Client{
		Timeout: 30 * time.Second,
	}

	// Verify server is running
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err, "Backend server must be running on %s", s.baseURL)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode, "Health check should return 200")
}

func (s *APITestSuite) TearDownSuite() {
	// Sendings and their events go with the company and the letter
	for _, id := range s.createdMessageIDs {
		s.deleteResource(fmt.Sprintf("/api/messages/%d", id))
	}
	for _, id := range s.createdRecipientIDs {
		s.deleteResource(fmt.Sprintf("/api/recipients/%d", id))
	}
	for _, id := range s.createdUserIDs {
		s.deleteResource(fmt.Sprintf("/api/users/%d", id))
	}
}

// Helper methods
func (s *APITestSuite) doRequest(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, s.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	return s.client.Do(req)
}

func (s *APITestSuite) deleteResource(path string) {
	resp, _ := s.doRequest(http.MethodDelete, path, nil)
	if resp != nil {
		resp.Body.Close()
	}
}

func (s *APITestSuite) parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

// create posts body to path, expects 201 and returns the new ID
func (s *APITestSuite) create(path string, body interface{}) uint {
	resp, err := s.doRequest(http.MethodPost, path, body)
	require.NoError(s.T(), err)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID uint `json:"id"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(resp, &result))
	require.NotZero(s.T(), result.Data.ID)
	return result.Data.ID
}

func (s *APITestSuite) createUser() uint {
	id := s.create("/api/users", map[string]interface{}{
		"email":    fmt.Sprintf("owner-%d@example.com", time.Now().UnixNano()),
		"password": "correct-horse-battery",
		"company":  fmt.Sprintf("Company %d", time.Now().UnixNano()),
	})
	s.createdUserIDs = append(s.createdUserIDs, id)
	return id
}

func (s *APITestSuite) createRecipient() uint {
	id := s.create("/api/recipients", map[string]interface{}{
		"email":      fmt.Sprintf("rcpt-%d@example.com", time.Now().UnixNano()),
		"first_name": "Test",
	})
	s.createdRecipientIDs = append(s.createdRecipientIDs, id)
	return id
}

func (s *APITestSuite) createMessage() uint {
	id := s.create("/api/messages", map[string]interface{}{
		"title": fmt.Sprintf("Letter %d", time.Now().UnixNano()),
		"body":  "Hello from the API suite",
	})
	s.createdMessageIDs = append(s.createdMessageIDs, id)
	return id
}

func (s *APITestSuite) expectStatus(method, path string, body interface{}, status int) {
	resp, err := s.doRequest(method, path, body)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	assert.Equal(s.T(), status, resp.StatusCode)
}

// =============================================================================
// HEALTH ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestHealth_ReturnsHealthy() {
	resp, err := s.client.Get(s.baseURL + "/health")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(s.T(), err)
	assert.Contains(s.T(), []interface{}{"healthy", "degraded"}, result["status"])
}

func (s *APITestSuite) TestReady_ReturnsReady() {
	resp, err := s.client.Get(s.baseURL + "/ready")
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "ready", result["status"])
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestUser_CreateAndActivate() {
	id := s.createUser()

	resp, err := s.doRequest(http.MethodGet, fmt.Sprintf("/api/users/%d", id), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var getResult struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(resp, &getResult))
	assert.Equal(s.T(), false, getResult.Data["is_active"])
	assert.NotContains(s.T(), getResult.Data, "password_hash")

	s.expectStatus(http.MethodPatch, fmt.Sprintf("/api/users/%d/active", id),
		map[string]interface{}{"is_active": true}, http.StatusOK)
}

func (s *APITestSuite) TestUser_Create_InvalidEmail_Returns400() {
	s.expectStatus(http.MethodPost, "/api/users", map[string]interface{}{
		"email":    "not-an-email",
		"password": "correct-horse-battery",
		"company":  "Nope",
	}, http.StatusBadRequest)
}

// =============================================================================
// RECIPIENT ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestRecipient_CRUD_Flow() {
	// CREATE
	email := fmt.Sprintf("crud-%d@example.com", time.Now().UnixNano())
	id := s.create("/api/recipients", map[string]interface{}{"email": email, "first_name": "Test"})
	s.createdRecipientIDs = append(s.createdRecipientIDs, id)

	// UPDATE replaces every field
	s.expectStatus(http.MethodPut, fmt.Sprintf("/api/recipients/%d", id), map[string]interface{}{
		"email":      email,
		"first_name": "Test",
		"last_name":  "Updated",
	}, http.StatusOK)

	// GET
	resp, err := s.doRequest(http.MethodGet, fmt.Sprintf("/api/recipients/%d", id), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)

	var getResult struct {
		Data struct {
			LastName    *string `json:"last_name"`
			DisplayName string  `json:"display_name"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(resp, &getResult))
	require.NotNil(s.T(), getResult.Data.LastName)
	assert.Equal(s.T(), "Updated", *getResult.Data.LastName)
	assert.Equal(s.T(), "Test Updated: "+email, getResult.Data.DisplayName)

	// DELETE
	s.expectStatus(http.MethodDelete, fmt.Sprintf("/api/recipients/%d", id), nil, http.StatusNoContent)
	s.createdRecipientIDs = s.createdRecipientIDs[:len(s.createdRecipientIDs)-1]

	// Verify deleted
	s.expectStatus(http.MethodGet, fmt.Sprintf("/api/recipients/%d", id), nil, http.StatusNotFound)
}

func (s *APITestSuite) TestRecipient_Create_Duplicate_Returns409() {
	email := fmt.Sprintf("dup-%d@example.com", time.Now().UnixNano())
	id := s.create("/api/recipients", map[string]interface{}{"email": email})
	s.createdRecipientIDs = append(s.createdRecipientIDs, id)

	s.expectStatus(http.MethodPost, "/api/recipients", map[string]interface{}{"email": email}, http.StatusConflict)
}

// =============================================================================
// MESSAGE ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestMessage_Create_TitleTooLong_Returns400() {
	title := make([]byte, 101)
	for i := range title {
		title[i] = 'x'
	}
	s.expectStatus(http.MethodPost, "/api/messages", map[string]interface{}{
		"title": string(title),
		"body":  "body",
	}, http.StatusBadRequest)
}

func (s *APITestSuite) TestMessage_Get_NotFound_Returns404() {
	s.expectStatus(http.MethodGet, "/api/messages/999999", nil, http.StatusNotFound)
}

// =============================================================================
// SENDING ENDPOINTS
// =============================================================================

func (s *APITestSuite) TestSending_Lifecycle() {
	userID := s.createUser()
	letterID := s.createMessage()
	recipientID := s.createRecipient()

	sendingID := s.create("/api/sendings", map[string]interface{}{
		"frequency":     "daily",
		"user_id":       userID,
		"letter_id":     letterID,
		"recipient_ids": []uint{recipientID},
	})

	resp, err := s.doRequest(http.MethodGet, fmt.Sprintf("/api/sendings/%d", sendingID), nil)
	require.NoError(s.T(), err)
	var getResult struct {
		Data struct {
			Status      string     `json:"status"`
			CompanyID   uint       `json:"company_id"`
			ScheduledAt *time.Time `json:"scheduled_at"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(resp, &getResult))
	assert.Equal(s.T(), "created", getResult.Data.Status)
	assert.Equal(s.T(), userID, getResult.Data.CompanyID)
	assert.NotNil(s.T(), getResult.Data.ScheduledAt)

	// Not launched yet, so a dispatch does nothing
	resp, err = s.doRequest(http.MethodPost, fmt.Sprintf("/api/sendings/%d/dispatch", sendingID), nil)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	var dispatchResult struct {
		Data struct {
			Outcome string `json:"outcome"`
		} `json:"data"`
	}
	require.NoError(s.T(), s.parseResponse(resp, &dispatchResult))
	assert.Equal(s.T(), "skipped", dispatchResult.Data.Outcome)

	s.expectStatus(http.MethodPatch, fmt.Sprintf("/api/sendings/%d/status", sendingID),
		map[string]interface{}{"status": "bogus"}, http.StatusBadRequest)
	s.expectStatus(http.MethodPatch, fmt.Sprintf("/api/sendings/%d/active", sendingID),
		map[string]interface{}{"is_active": false}, http.StatusOK)
	s.expectStatus(http.MethodGet, fmt.Sprintf("/api/sendings/%d/events", sendingID), nil, http.StatusOK)
	s.expectStatus(http.MethodGet, fmt.Sprintf("/api/sendings/%d/report", sendingID), nil, http.StatusOK)

	s.expectStatus(http.MethodDelete, fmt.Sprintf("/api/sendings/%d", sendingID), nil, http.StatusNoContent)
}

func (s *APITestSuite) TestSending_Create_InvalidFrequency_Returns422() {
	userID := s.createUser()
	s.expectStatus(http.MethodPost, "/api/sendings", map[string]interface{}{
		"frequency": "hourly",
		"user_id":   userID,
	}, http.StatusUnprocessableEntity)
}

func (s *APITestSuite) TestSending_Create_WithoutCompany_Returns422() {
	s.expectStatus(http.MethodPost, "/api/sendings", map[string]interface{}{
		"frequency": "weekly",
	}, http.StatusUnprocessableEntity)
}

func (s *APITestSuite) TestSending_Dispatch_NotFound_Returns404() {
	s.expectStatus(http.MethodPost, "/api/sendings/999999/dispatch", nil, http.StatusNotFound)
}

// =============================================================================
// AUTHENTICATION TESTS
// =============================================================================

func (s *APITestSuite) TestAuth_MissingAPIKey_Returns401() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/sendings", nil)
	require.NoError(s.T(), err)
	// No Authorization header

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *APITestSuite) TestAuth_InvalidAPIKey_Returns401() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/sendings", nil)
	require.NoError(s.T(), err)
	req.Header.Set("Authorization", "Bearer invalid-api-key")

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *APITestSuite) TestAuth_HealthEndpoint_NoAuthRequired() {
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/health", nil)
	require.NoError(s.T(), err)

	resp, err := s.client.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
}
