package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/kenburns/internal/config"
	"github.com/ivlev/kenburns/internal/scheduler"
	"github.com/ivlev/kenburns/internal/telemetry"
)

type fakeController struct {
	calls  []string
	status scheduler.Status
	fail   error
	panic  error
}

func (f *fakeController) do(name string) error {
	f.calls = append(f.calls, name)
	if f.panic != nil {
		panic(f.panic)
	}
	return f.fail
}

func (f *fakeController) Start() error    { return f.do("start") }
func (f *fakeController) Stop() error     { return f.do("stop") }
func (f *fakeController) Pause() error    { return f.do("pause") }
func (f *fakeController) Resume() error   { return f.do("resume") }
func (f *fakeController) Next() error     { return f.do("next") }
func (f *fakeController) Previous() error { return f.do("previous") }
func (f *fakeController) Status() (scheduler.Status, error) {
	return f.status, nil
}

func TestActionsDispatch(t *testing.T) {
	ctl := &fakeController{status: scheduler.Status{State: scheduler.Running, Index: 2, ItemID: "img-1"}}
	r := NewRouter(ctl, nil, zerolog.Nop())

	for _, action := range []string{"start", "stop", "pause", "resume", "next", "previous"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/"+action, nil))
		require.Equal(t, http.StatusOK, rec.Code, action)
	}
	assert.Equal(t, []string{"start", "stop", "pause", "resume", "next", "previous"}, ctl.calls)
}

func TestStatusJSON(t *testing.T) {
	ctl := &fakeController{status: scheduler.Status{State: scheduler.Paused, Index: 1, Count: 3, Visible: scheduler.SlotB, ItemID: "x", RemainingMS: 2500}}
	r := NewRouter(ctl, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "paused", body["state"])
	assert.Equal(t, "B", body["visible"])
	assert.Equal(t, "x", body["item_id"])
	assert.Equal(t, 2500.0, body["remaining_ms"])
}

func TestInvalidDurationsBecome422(t *testing.T) {
	ctl := &fakeController{panic: fmt.Errorf("%w: too short", config.ErrInvalidDurations)}
	r := NewRouter(ctl, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/start", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{scheduler.ErrClosed, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		ctl := &fakeController{fail: tt.err}
		rec := httptest.NewRecorder()
		NewRouter(ctl, nil, zerolog.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/next", nil))
		assert.Equal(t, tt.code, rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	r := NewRouter(&fakeController{}, telemetry.NewMetrics(), zerolog.Nop())

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/pause", nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `kenburns_control_requests_total{endpoint="/pause",method="POST",status="200"} 1`)
}

func TestGetOnActionIsRejected(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(&fakeController{}, nil, zerolog.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/next", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQRCode(t *testing.T) {
	r := NewRouter(&fakeController{}, nil, zerolog.Nop())
	req := httptest.NewRequest(http.MethodGet, "/qr", nil)
	req.Host = "slideshow.local:8080"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}
