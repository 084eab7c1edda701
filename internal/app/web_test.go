package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/accel_computer/internal/accel"
	"github.com/relabs-tech/accel_computer/internal/orientation"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestWebNoData(t *testing.T) {
	h := (&WebState{}).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/sample").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/api/pose").Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/tap").Code)
}

func TestWebServesLatest(t *testing.T) {
	state := &WebState{}
	h := state.Handler()

	state.setSample(accel.Sample{X: 1, Y: -1, Z: 64, Scale: 4})
	state.setSample(accel.Sample{X: 2, Y: -2, Z: 65, Scale: 4})
	state.setPose(orientation.Pose{Roll: 12.5})

	rec := get(t, h, "/api/sample")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 2, body["x"])
	assert.EqualValues(t, 8, body["x_mg"])
	assert.EqualValues(t, -8, body["y_mg"])
	assert.EqualValues(t, 260, body["z_mg"])

	rec = get(t, h, "/api/pose")
	require.Equal(t, http.StatusOK, rec.Code)
	var pose orientation.Pose
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pose))
	assert.Equal(t, 12.5, pose.Roll)
}

func TestWebHandlerDecodesPayload(t *testing.T) {
	state := &WebState{}
	h := state.Handler()

	webHandler("accel/tap", state.setTap)(nil, fakeMessage{payload: []byte(`{"kind":"single"}`)})
	webHandler("accel/tap", state.setTap)(nil, fakeMessage{payload: []byte(`{`)})

	rec := get(t, h, "/api/tap")
	require.Equal(t, http.StatusOK, rec.Code)
	var ev accel.TapEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ev))
	assert.Equal(t, accel.TapSingle, ev.Kind)
}

func TestWebServesIndex(t *testing.T) {
	rec := get(t, (&WebState{}).Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "/api/sample")
}
