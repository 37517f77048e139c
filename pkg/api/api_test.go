package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/security/password"
	"creotrail/validator/pkg/store"
)

var testEpoch = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type fakeRecorder struct {
	classifications []string
	signups         []string
	logins          []string
	historyFormats  []string
}

func (f *fakeRecorder) RecordClassification(c string) { f.classifications = append(f.classifications, c) }
func (f *fakeRecorder) RecordSignup(role string) { f.signups = append(f.signups, role) }
func (f *fakeRecorder) RecordLogin(result string) { f.logins = append(f.logins, result) }
func (f *fakeRecorder) RecordHistoryQuery(_, format string, _ int) {
	f.historyFormats = append(f.historyFormats, format)
}

type testAPI struct {
	router  *mux.Router
	store   *store.SQLStore
	clock   *clockwork.FakeClock
	metrics *fakeRecorder
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	clock := clockwork.NewFakeClockAt(testEpoch)
	s, err := store.Open(context.Background(), store.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "api.db"),
		Hasher: password.NewHasher(bcrypt.MinCost),
		Clock:  clock,
	})
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	rec := &fakeRecorder{}
	router := mux.NewRouter()
	NewHandler(s, Options{
		Layout:    string(s.Layout()),
		CSVHeader: true,
		Metrics:   rec,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}).Register(router)

	return &testAPI{router: router, store: s, clock: clock, metrics: rec}
}

func (a *testAPI) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) types.ErrorDetail {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	body := decode[types.ErrorResponse](t, rec)
	if message != "" && body.Error.Message != message {
		t.Errorf("message = %q, want %q", body.Error.Message, message)
	}
	return body.Error
}

func (a *testAPI) signup(t *testing.T, name, role string) signupResponse {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/signup", signupRequest{
		Name: name, Email: name + "@example.com", Password: "pw-" + name, Role: role,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup(%s) status = %d: %s", name, rec.Code, rec.Body.String())
	}
	return decode[signupResponse](t, rec)
}

func TestRoot(t *testing.T) {
	a := newTestAPI(t)
	rec := a.do(t, http.MethodGet, "/", nil)
	if got := decode[map[string]string](t, rec); got["message"] != "Backend is running!" {
		t.Errorf("root = %v", got)
	}
}

func TestSignup(t *testing.T) {
	a := newTestAPI(t)

	got := a.signup(t, "ada", "")
	if got.ID == 0 || got.Role != store.RoleValidator || got.Email != "ada@example.com" {
		t.Errorf("signup = %+v", got)
	}

	rec := a.do(t, http.MethodPost, "/signup", signupRequest{Name: "Other", Email: "ada@example.com", Password: "x"})
	detail := expectError(t, rec, http.StatusBadRequest, "Email already registered")
	if detail.Code != types.CodeEmailTaken {
		t.Errorf("code = %q", detail.Code)
	}

	rec = a.do(t, http.MethodPost, "/signup", signupRequest{Name: "NoPass", Email: "np@example.com"})
	expectError(t, rec, http.StatusBadRequest, "")

	rec = a.do(t, http.MethodPost, "/signup", "{not json")
	if d := expectError(t, rec, http.StatusBadRequest, ""); d.Code != types.CodeInvalidJSON {
		t.Errorf("code = %q, want invalid_json", d.Code)
	}

	if diff := cmp.Diff([]string{"validator"}, a.metrics.signups); diff != "" {
		t.Errorf("signup metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t)
	ada := a.signup(t, "ada", "Validator")
	if err := a.store.UpdateLastProcessed(context.Background(), ada.ID, 4); err != nil {
		t.Fatalf("UpdateLastProcessed() failed: %v", err)
	}

	tests := []struct {
		name       string
		req        loginRequest
		wantStatus int
		wantMsg    string
	}{
		{"success", loginRequest{Email: "ada@example.com", Password: "pw-ada"}, http.StatusOK, ""},
		{"role matches case-insensitively", loginRequest{Email: "ada@example.com", Password: "pw-ada", Role: "VALIDATOR"}, http.StatusOK, ""},
		{"wrong password", loginRequest{Email: "ada@example.com", Password: "nope"}, http.StatusBadRequest, "Invalid credentials"},
		{"unknown email", loginRequest{Email: "eve@example.com", Password: "pw-ada"}, http.StatusBadRequest, "Invalid credentials"},
		{"role mismatch", loginRequest{Email: "ada@example.com", Password: "pw-ada", Role: "admin"}, http.StatusForbidden, "Incorrect role selected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/login", tt.req)
			if tt.wantStatus != http.StatusOK {
				expectError(t, rec, tt.wantStatus, tt.wantMsg)
				return
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			want := loginResponse{ID: ada.ID, Name: "ada", Email: "ada@example.com", Role: "validator", LastProcessedCmdID: 4}
			if diff := cmp.Diff(want, decode[loginResponse](t, rec)); diff != "" {
				t.Errorf("login mismatch (-want +got):\n%s", diff)
			}
		})
	}

	want := []string{loginSuccess, loginSuccess, loginInvalid, loginInvalid, loginRoleMismatch}
	if diff := cmp.Diff(want, a.metrics.logins); diff != "" {
		t.Errorf("login metrics mismatch (-want +got):\n%s", diff)
	}
}

func importCorpus(t *testing.T, s *store.SQLStore) {
	t.Helper()
	_, err := s.ImportCorpus(context.Background(), []store.CorpusCommand{
		{ID: 20, Arguments: []store.CorpusArgument{
			{ID: 202, FullCommandLine: "cp a b"},
			{ID: 201, FullCommandLine: "cp -r dir out", Context: `first\nsecond`},
		}},
		{ID: 10, Arguments: []store.CorpusArgument{{ID: 101, FullCommandLine: "echo hi"}}},
	})
	if err != nil {
		t.Fatalf("ImportCorpus() failed: %v", err)
	}
}

func TestCommandsAndContexts(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/commands", nil)
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("empty corpus = %q, want []", rec.Body.String())
	}

	importCorpus(t, a.store)

	rows := decode[[]store.CorpusRow](t, a.do(t, http.MethodGet, "/commands", nil))
	want := []store.CorpusRow{
		{ArgumentID: 101, CommandID: 10, FullCommandLine: "echo hi"},
		{ArgumentID: 201, CommandID: 20, FullCommandLine: "cp -r dir out", ContextLines: "first\nsecond"},
		{ArgumentID: 202, CommandID: 20, FullCommandLine: "cp a b"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("/commands mismatch (-want +got):\n%s", diff)
	}

	rows = decode[[]store.CorpusRow](t, a.do(t, http.MethodGet, "/contexts/20", nil))
	if diff := cmp.Diff(want[1:], rows); diff != "" {
		t.Errorf("/contexts/20 mismatch (-want +got):\n%s", diff)
	}

	rec = a.do(t, http.MethodGet, "/contexts/abc", nil)
	if d := expectError(t, rec, http.StatusBadRequest, ""); d.Param != "command_id" {
		t.Errorf("param = %q", d.Param)
	}
}

func TestMarkCommand(t *testing.T) {
	a := newTestAPI(t)
	importCorpus(t, a.store)
	ada := a.signup(t, "ada", "")

	for _, path := range []string{"/mark_dynamic", "/mark_static", "/mark_dynamic"} {
		rec := a.do(t, http.MethodPost, path, markRequest{UserID: ada.ID, CommandID: 10, CommandText: "echo hi"})
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d: %s", path, rec.Code, rec.Body.String())
		}
	}

	stats := decode[store.ValidatorStats](t, a.do(t, http.MethodGet, "/validator_stats/"+itoa(ada.ID), nil))
	want := store.ValidatorStats{Dynamic: 2, Static: 1, Processed: 3, Remaining: 0, Total: 2}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}

	rec := a.do(t, http.MethodPost, "/mark_static", markRequest{UserID: 999, CommandID: 10, CommandText: "x"})
	expectError(t, rec, http.StatusNotFound, "User not found")

	rec = a.do(t, http.MethodPost, "/mark_static", markRequest{CommandID: 10})
	expectError(t, rec, http.StatusBadRequest, "")

	rec = a.do(t, http.MethodPost, "/mark_static", `{"user_id":"one"}`)
	if d := expectError(t, rec, http.StatusBadRequest, ""); d.Param != "user_id" {
		t.Errorf("param = %q, want user_id", d.Param)
	}

	if diff := cmp.Diff([]string{"dynamic", "static", "dynamic"}, a.metrics.classifications); diff != "" {
		t.Errorf("classification metrics mismatch (-want +got):\n%s", diff)
	}

	rec = a.do(t, http.MethodGet, "/mark_static", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /mark_static status = %d, want 405", rec.Code)
	}
}

func TestLastCmd(t *testing.T) {
	a := newTestAPI(t)
	ada := a.signup(t, "ada", "")

	get := func(id string) int64 {
		rec := a.do(t, http.MethodGet, "/last_cmd/"+id, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("last_cmd status = %d", rec.Code)
		}
		return decode[lastCmdResponse](t, rec).LastCmdID
	}

	if got := get(itoa(ada.ID)); got != 0 {
		t.Errorf("initial last_cmd = %d", got)
	}

	rec := a.do(t, http.MethodPost, "/update_last_cmd", updateLastCmdRequest{UserID: ada.ID, LastCmdID: 3})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := get(itoa(ada.ID)); got != 3 {
		t.Errorf("last_cmd = %d, want 3", got)
	}
	if got := get("4242"); got != 0 {
		t.Errorf("unknown user last_cmd = %d, want 0", got)
	}

	rec = a.do(t, http.MethodPost, "/update_last_cmd", updateLastCmdRequest{UserID: ada.ID, LastCmdID: -1})
	expectError(t, rec, http.StatusBadRequest, "")

	rec = a.do(t, http.MethodPost, "/update_last_cmd", updateLastCmdRequest{UserID: 4242, LastCmdID: 1})
	expectError(t, rec, http.StatusNotFound, "")

	rec = a.do(t, http.MethodGet, "/last_cmd/x1", nil)
	expectError(t, rec, http.StatusBadRequest, "")
}

func TestAdminEndpoints(t *testing.T) {
	a := newTestAPI(t)

	if got := strings.TrimSpace(a.do(t, http.MethodGet, "/validators", nil).Body.String()); got != "[]" {
		t.Errorf("empty validators = %q", got)
	}

	ada := a.signup(t, "ada", "validator")
	bob := a.signup(t, "bob", "Validator")
	a.signup(t, "vic", "viewer")

	refs := decode[[]store.ValidatorRef](t, a.do(t, http.MethodGet, "/validators", nil))
	if diff := cmp.Diff([]store.ValidatorRef{{ID: ada.ID, Name: "ada"}, {ID: bob.ID, Name: "bob"}}, refs); diff != "" {
		t.Errorf("/validators mismatch (-want +got):\n%s", diff)
	}

	counts := decode[store.RoleCounts](t, a.do(t, http.MethodGet, "/user_counts", nil))
	wantCounts := store.RoleCounts{ValidatorCount: 2, ViewerCount: 1, ValidatorNames: []string{"ada", "bob"}, ViewerNames: []string{"vic"}}
	if diff := cmp.Diff(wantCounts, counts); diff != "" {
		t.Errorf("/user_counts mismatch (-want +got):\n%s", diff)
	}

	a.clock.Advance(time.Minute)
	a.do(t, http.MethodPost, "/mark_dynamic", markRequest{UserID: bob.ID, CommandID: 1, CommandText: "ls"})

	active := decode[[]store.ActiveValidator](t, a.do(t, http.MethodGet, "/recent_active", nil))
	seen := testEpoch.Add(time.Minute)
	wantActive := []store.ActiveValidator{{Name: "bob", LastSeen: &seen}, {Name: "ada"}}
	if diff := cmp.Diff(wantActive, active); diff != "" {
		t.Errorf("/recent_active mismatch (-want +got):\n%s", diff)
	}
}

func TestHistory(t *testing.T) {
	a := newTestAPI(t)
	ada := a.signup(t, "ada", "")
	base := "/history/" + itoa(ada.ID)

	marks := []struct {
		path string
		cmd  int64
		text string
	}{
		{"/mark_dynamic", 20, "cp a b"},
		{"/mark_static", 10, "echo hi"},
		{"/mark_static", 20, "cp -r x y"},
	}
	for _, m := range marks {
		a.clock.Advance(24 * time.Hour)
		if rec := a.do(t, http.MethodPost, m.path, markRequest{UserID: ada.ID, CommandID: m.cmd, CommandText: m.text}); rec.Code != http.StatusOK {
			t.Fatalf("mark failed: %s", rec.Body.String())
		}
	}
	day := func(n int) time.Time { return testEpoch.Add(time.Duration(n) * 24 * time.Hour) }

	tests := []struct {
		name  string
		query string
		want  []store.HistoryEntry
	}{
		{
			name:  "all",
			query: "",
			want: []store.HistoryEntry{
				{CommandID: 10, CommandText: "echo hi", Action: "Static", ProcessedTime: day(2)},
				{CommandID: 20, CommandText: "cp a b", Action: "Dynamic", ProcessedTime: day(1)},
				{CommandID: 20, CommandText: "cp -r x y", Action: "Static", ProcessedTime: day(3)},
			},
		},
		{
			name:  "type is case-insensitive",
			query: "?type=dynamic",
			want: []store.HistoryEntry{
				{CommandID: 20, CommandText: "cp a b", Action: "Dynamic", ProcessedTime: day(1)},
			},
		},
		{
			name:  "command filter",
			query: "?cmd_id=10&type=All",
			want: []store.HistoryEntry{
				{CommandID: 10, CommandText: "echo hi", Action: "Static", ProcessedTime: day(2)},
			},
		},
		{
			name:  "date-only end covers the whole day",
			query: "?start=2024-03-03&end=2024-03-03",
			want: []store.HistoryEntry{
				{CommandID: 10, CommandText: "echo hi", Action: "Static", ProcessedTime: day(2)},
			},
		},
		{
			name:  "naive iso bounds",
			query: "?start=2024-03-02T00:00:00&end=2024-03-03T23:59:59.999999",
			want: []store.HistoryEntry{
				{CommandID: 10, CommandText: "echo hi", Action: "Static", ProcessedTime: day(2)},
				{CommandID: 20, CommandText: "cp a b", Action: "Dynamic", ProcessedTime: day(1)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, base+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
			}
			got := decode[[]store.HistoryEntry](t, rec)
			for i := range got {
				got[i].ID = 0
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("history mismatch (-want +got):\n%s", diff)
			}
		})
	}

	rec := a.do(t, http.MethodGet, base+"?format=csv&type=Static", nil)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 || lines[0] != "id,command_id,command_text,action,processed_time" {
		t.Errorf("csv = %q", rec.Body.String())
	}
}

func TestHistory_BadParams(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		query string
		param string
	}{
		{"?start=yesterday", "start"},
		{"?end=03/01/2024", "end"},
		{"?cmd_id=ten", "cmd_id"},
		{"?type=maybe", "type"},
		{"?start=2024-03-05&end=2024-03-01", "end"},
		{"?format=xml", "format"},
	}

	for _, tt := range tests {
		rec := a.do(t, http.MethodGet, "/history/1"+tt.query, nil)
		d := expectError(t, rec, http.StatusBadRequest, "")
		if d.Param != tt.param {
			t.Errorf("%s: param = %q, want %q", tt.query, d.Param, tt.param)
		}
	}

	rec := a.do(t, http.MethodGet, "/history/abc", nil)
	expectError(t, rec, http.StatusBadRequest, "")
}

func TestStorageFailure(t *testing.T) {
	a := newTestAPI(t)
	a.store.Close()

	for _, target := range []string{"/commands", "/validators", "/history/1"} {
		rec := a.do(t, http.MethodGet, target, nil)
		d := expectError(t, rec, http.StatusInternalServerError, "")
		if d.Type != types.ErrorTypeServerError || strings.Contains(d.Message, "closed") {
			t.Errorf("%s: leaked error detail %+v", target, d)
		}
	}
}

func TestParseBound(t *testing.T) {
	tests := []struct {
		raw     string
		end     bool
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{raw: "", wantNil: true},
		{raw: "2024-03-01T10:00:00+02:00", want: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
		{raw: "2024-03-01T10:00:00.25Z", want: time.Date(2024, 3, 1, 10, 0, 0, 250000000, time.UTC)},
		{raw: "2024-03-01T10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{raw: "2024-03-01 10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{raw: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "2024-03-01", end: true, want: time.Date(2024, 3, 1, 23, 59, 59, 999999999, time.UTC)},
		{raw: "March 1st", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseBound(tt.raw, tt.end)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseBound(%q) expected error", tt.raw)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseBound(%q) failed: %v", tt.raw, err)
		}
		if tt.wantNil {
			if got != nil {
				t.Errorf("parseBound(%q) = %v, want nil", tt.raw, got)
			}
			continue
		}
		if got == nil || !got.Equal(tt.want) {
			t.Errorf("parseBound(%q, end=%v) = %v, want %v", tt.raw, tt.end, got, tt.want)
		}
	}
}
