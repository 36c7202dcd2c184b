package httpapi

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRespondJSONLogsEncodeFailure(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := NewHandler(nil, nil, Options{Logger: zap.New(core)})

	rec := httptest.NewRecorder()
	h.respondJSON(rec, math.NaN(), http.StatusOK)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("failed to encode response").Len())
}
