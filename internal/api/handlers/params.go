package handlers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/welldanyogia/webrana-mailcast-backend/internal/validator"
)

// parseID reads a positive integer path parameter
func parseID(c echo.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads limit and offset query parameters and clamps them
func parsePagination(c echo.Context) (int, int) {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	return validator.ValidatePagination(limit, offset)
}

// optionalUintQuery reads an optional positive integer query parameter
func optionalUintQuery(c echo.Context, name string) (*uint, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return nil, false
	}
	id := uint(v)
	return &id, true
}
