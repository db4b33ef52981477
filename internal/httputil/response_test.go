package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondAccepted(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAccepted(rec, map[string]string{"id": "f1"}, errors.New("sync failed at feed: version conflict"))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "sync failed at feed: version conflict", rec.Header().Get(SyncErrorHeader))
	assert.JSONEq(t, `{"id":"f1"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	RespondAccepted(rec, nil, errors.New("offline"))
	assert.JSONEq(t, `{"status":"accepted"}`, rec.Body.String())
}

func TestRespondErrorWithExtras(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithExtras(rec, http.StatusConflict, "taken", map[string]interface{}{"resourceId": "a@x.com"})

	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conflict", body["title"])
	assert.Equal(t, "taken", body["detail"])
	assert.Equal(t, "a@x.com", body["resourceId"], "extras sit at the top level")
	assert.Contains(t, body["type"], "6.5.8")
}

func TestErrorTypeFallsBackToBlank(t *testing.T) {
	assert.Equal(t, "about:blank", errorTypeFromStatus(http.StatusTeapot))
}

func TestRespondAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondAttachment(rec, "Night_Train.md", "text/markdown", []byte("# Night Train"))

	assert.Equal(t, `attachment; filename="Night_Train.md"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "# Night Train", rec.Body.String())
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/notifications/ws?token=q", nil)
	assert.Equal(t, "q", BearerToken(r))

	r.Header.Set("Authorization", "bearer h")
	assert.Equal(t, "h", BearerToken(r), "header wins over the query string")
}
