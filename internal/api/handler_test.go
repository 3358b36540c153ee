package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docwiz/internal/export"
	"docwiz/internal/fill"
	"docwiz/internal/knowledge"
	"docwiz/internal/notify"
	"docwiz/internal/outline"
	"docwiz/internal/wizard"
)

type stubGenerator struct{}

func (stubGenerator) GenerateOutline(ctx context.Context, req knowledge.OutlineRequest) knowledge.Result[knowledge.OutlineDraft] {
	return knowledge.Ok(knowledge.OutlineDraft{Sections: []knowledge.DraftSection{
		{Title: "Savings", Subtopics: []string{"401k", "IRA"}},
		{Title: "Spending", Subtopics: []string{"Budget"}},
	}})
}

func (stubGenerator) GenerateContent(ctx context.Context, req knowledge.ContentRequest) knowledge.Result[string] {
	if req.SubtopicTitle == "" {
		return knowledge.Err[string](errors.New("no title"))
	}
	return knowledge.Ok("Text about " + req.SubtopicTitle + ".")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := wizard.NewManager(wizard.Deps{
		Generator: stubGenerator{},
		Exporter:  export.NewExporter(export.Options{PreparedBy: "Tester"}),
		Logger:    logger,
	})
	t.Cleanup(mgr.CloseAll)
	return NewRouter(NewHandler(mgr, Options{Logger: logger}), []string{"*"})
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) wizard.View {
	t.Helper()
	var v wizard.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// startedSession creates a session and submits a topic.
func startedSession(t *testing.T, h http.Handler) wizard.View {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	v := decodeView(t, rec)
	assert.Equal(t, wizard.StepTopic, v.Step)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/topic", outline.Topic{MainTopic: "Retirement Plan"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeView(t, rec)
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"foo": "bar"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"foo":"bar"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{wizard.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", fill.ErrBusy), http.StatusConflict},
		{wizard.ErrGuard, http.StatusConflict},
		{wizard.ErrInvalidTopic, http.StatusBadRequest},
		{export.ErrUnknownFormat, http.StatusBadRequest},
		{outline.ErrInvalid, http.StatusBadRequest},
		{fill.ErrGeneration, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusFor(c.err), c.err.Error())
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	rec := do(t, newTestRouter(t), http.MethodGet, "/api/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"session not found"}`, rec.Body.String())
}

func TestWizardFlow(t *testing.T) {
	h := newTestRouter(t)
	v := startedSession(t, h)
	base := "/api/sessions/" + v.ID

	assert.Equal(t, wizard.StepOutline, v.Step)
	require.NotNil(t, v.Outline)
	require.Len(t, v.Outline.Sections, 2)
	assert.True(t, v.CanNext)

	// edits
	rec := do(t, h, http.MethodPost, base+"/sections", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	require.Len(t, v.Outline.Sections, 3)
	added := v.Outline.Sections[2]
	assert.Equal(t, outline.DefaultSectionTitle, added.Title)

	rec = do(t, h, http.MethodPatch, base+"/sections/"+added.ID, map[string]string{"title": "Estate"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Estate", decodeView(t, rec).Outline.Sections[2].Title)

	rec = do(t, h, http.MethodPost, base+"/sections/"+added.ID+"/move", map[string]string{"direction": "up"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Estate", decodeView(t, rec).Outline.Sections[1].Title)

	rec = do(t, h, http.MethodPost, base+"/sections/"+added.ID+"/move", map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, base+"/sections/"+added.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	require.Len(t, v.Outline.Sections, 2)

	// deselect the second section entirely
	spending := v.Outline.Sections[1]
	rec = do(t, h, http.MethodPost, base+"/sections/"+spending.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeView(t, rec).Outline.Sections[1].IsSelected)

	// content step
	rec = do(t, h, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v = decodeView(t, rec)
	assert.Equal(t, wizard.StepContent, v.Step)
	assert.False(t, v.CanNext)

	rec = do(t, h, http.MethodPost, base+"/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	savings := v.Outline.Sections[0]
	rec = do(t, h, http.MethodPost, base+"/sections/"+savings.ID+"/subtopics/"+savings.Subtopics[0].ID+"/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decodeView(t, rec)
	assert.Equal(t, "Text about 401k.", v.Outline.Sections[0].Subtopics[0].Content)
	assert.Equal(t, 50, v.Stats.Progress)

	rec = do(t, h, http.MethodPost, base+"/sections/"+savings.ID+"/subtopics/missing/generate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, base+"/generate", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool {
		return decodeView(t, do(t, h, http.MethodGet, base, nil)).Stats.AllGenerated
	}, 2*time.Second, 10*time.Millisecond)

	// user edit of generated text
	rec = do(t, h, http.MethodPatch, base+"/sections/"+savings.ID+"/subtopics/"+savings.Subtopics[1].ID,
		map[string]string{"content": "Edited by hand."})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Edited by hand.", decodeView(t, rec).Outline.Sections[0].Subtopics[1].Content)

	rec = do(t, h, http.MethodPost, base+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, wizard.StepPreview, decodeView(t, rec).Step)

	rec = do(t, h, http.MethodGet, base+"/preview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "### 1.2. IRA")
	assert.NotContains(t, rec.Body.String(), "Spending")

	rec = do(t, h, http.MethodGet, base+"/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="Retirement_Plan.xlsx"`, rec.Header().Get("Content-Disposition"))
	assert.NotZero(t, rec.Body.Len())

	rec = do(t, h, http.MethodGet, base+"/export?format=pptx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, base+"/events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var feed struct {
		Events []notify.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	var toasts []string
	for _, ev := range feed.Events {
		if ev.Kind == notify.KindSuccess {
			toasts = append(toasts, ev.Message)
		}
	}
	assert.Contains(t, toasts, "Outline generated successfully!")
	assert.Contains(t, toasts, "Content generation complete!")
	assert.Contains(t, toasts, "Your document has been downloaded as an Excel file.")

	rec = do(t, h, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitTopicValidation(t *testing.T) {
	h := newTestRouter(t)
	id := decodeView(t, do(t, h, http.MethodPost, "/api/sessions", nil)).ID

	rec := do(t, h, http.MethodPost, "/api/sessions/"+id+"/topic", outline.Topic{MainTopic: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/topic", strings.NewReader("{"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/sessions/"+id+"/next", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestReplaceOutlineValidation(t *testing.T) {
	h := newTestRouter(t)
	v := startedSession(t, h)

	bad := outline.Outline{Sections: []outline.Section{{ID: "a", Title: "Lonely", IsSelected: true}}}
	rec := do(t, h, http.MethodPut, "/api/sessions/"+v.ID+"/outline", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/sessions/"+v.ID+"/outline", outline.Default("Retirement Plan"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Introduction", decodeView(t, rec).Outline.Sections[0].Title)
}

func TestEventStream(t *testing.T) {
	srv := httptest.NewServer(newTestRouter(t))
	defer srv.Close()
	h := srv.Config.Handler
	v := startedSession(t, h)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sessions/" + v.ID
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// history replay starts with the outline events
	var kinds []notify.Kind
	for len(kinds) < 3 {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var ev notify.Event
		require.NoError(t, json.Unmarshal(data, &ev))
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []notify.Kind{notify.KindOutline, notify.KindSuccess, notify.KindStep}, kinds)

	// live event
	rec := do(t, h, http.MethodPost, "/api/sessions/"+v.ID+"/next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var ev notify.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, notify.KindStep, ev.Kind)
	assert.Equal(t, int(wizard.StepContent), ev.Step)
}
