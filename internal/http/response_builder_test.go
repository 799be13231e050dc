package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONResponse(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse(map[string]int{"n": 1}).Status(http.StatusCreated).Header("Location", "/x").Write(rec)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "/x", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, http.StatusBadRequest, "unit must be one of DAY, WEEK, MONTH, YEAR")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"unit must be one of DAY, WEEK, MONTH, YEAR"}`, rec.Body.String())
}

func TestJSONResponseNilBody(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse(nil).Status(http.StatusNoContent).Write(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
