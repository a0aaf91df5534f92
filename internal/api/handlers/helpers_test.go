package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/api/response"
)

// newJSONContext creates an echo context with a JSON body and optional path params
func newJSONContext(e *echo.Echo, method, path, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params)/2)
		values := make([]string, 0, len(params)/2)
		for i := 0; i+1 < len(params); i += 2 {
			names = append(names, params[i])
			values = append(values, params[i+1])
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	return c, rec
}

// parseAPIResponse parses the API response from the recorder
func parseAPIResponse(rec *httptest.ResponseRecorder) (*response.APIResponse, error) {
	var resp response.APIResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	return &resp, err
}

// parseErrorResponse parses the error response from the recorder
func parseErrorResponse(rec *httptest.ResponseRecorder) (*response.ErrorResponse, error) {
	var resp response.ErrorResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	return &resp, err
}

// parsePaginatedResponse parses a paginated response from the recorder
func parsePaginatedResponse(rec *httptest.ResponseRecorder) (*response.PaginatedResponse, error) {
	var resp response.PaginatedResponse
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	return &resp, err
}

func uintPtr(v uint) *uint { return &v }

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }
