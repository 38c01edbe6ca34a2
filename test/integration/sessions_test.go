package integration

import (
	"net/http"
	"testing"

	"github.com/rechner-dev/rechner/pkg/api"
)

// newSession creates a session via the API and returns its state.
func newSession(t *testing.T, bearer string) api.Session {
	t.Helper()
	resp := doRequest(t, http.MethodPost, testEnv.BaseURL()+"/v1/sessions", "", bearer)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var sess api.Session
	decodeJSON(t, resp, &sess)
	return sess
}

// pressKeys sends each key press and returns the final session state.
func pressKeys(t *testing.T, id, bearer string, bodies ...string) api.Session {
	t.Helper()
	var sess api.Session
	for _, body := range bodies {
		resp := doRequest(t, http.MethodPost, testEnv.BaseURL()+"/v1/sessions/"+id+"/keys", body, bearer)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("press %s: status %d: %s", body, resp.StatusCode, readBody(t, resp))
		}
		decodeJSON(t, resp, &sess)
	}
	return sess
}

func TestFullCalculationFlow(t *testing.T) {
	sess := newSession(t, "")

	state := pressKeys(t, sess.ID, "",
		`{"kind":"digit","value":"1"}`,
		`{"kind":"digit","value":"2"}`,
		`{"kind":"operator","value":"+"}`,
		`{"kind":"digit","value":"3"}`,
		`{"kind":"operator","value":"×"}`,
		`{"kind":"digit","value":"2"}`,
		`{"kind":"equals"}`,
	)

	// Left to right: (12 + 3) × 2.
	if state.Display != "30" {
		t.Errorf("display = %q, want 30", state.Display)
	}
	if !state.Finished {
		t.Error("expected finished state after equals")
	}

	// Result is recorded in history.
	resp := doRequest(t, http.MethodGet, testEnv.BaseURL()+"/v1/sessions/"+sess.ID+"/history", "", "")
	var hist api.HistoryList
	decodeJSON(t, resp, &hist)
	if len(hist.Data) != 1 || hist.Data[0].Equation != "12 + 3 × 2" || hist.Data[0].Result != "30" {
		t.Errorf("history = %+v", hist.Data)
	}

	// Chaining an operator continues from the result.
	state = pressKeys(t, sess.ID, "",
		`{"kind":"operator","value":"-"}`,
		`{"kind":"digit","value":"5"}`,
		`{"kind":"equals"}`,
	)
	if state.Display != "25" {
		t.Errorf("chained display = %q, want 25", state.Display)
	}
}

func TestDivisionByZeroYieldsZero(t *testing.T) {
	sess := newSession(t, "")

	state := pressKeys(t, sess.ID, "",
		`{"kind":"digit","value":"5"}`,
		`{"kind":"operator","value":"÷"}`,
		`{"kind":"digit","value":"0"}`,
		`{"kind":"equals"}`,
	)
	if state.Display != "0" {
		t.Errorf("5 ÷ 0 display = %q, want 0", state.Display)
	}
}

func TestPercentAndBackspace(t *testing.T) {
	sess := newSession(t, "")

	state := pressKeys(t, sess.ID, "",
		`{"kind":"digit","value":"5"}`,
		`{"kind":"digit","value":"0"}`,
		`{"kind":"percent"}`,
	)
	if state.Display != "0.5" {
		t.Errorf("50%% display = %q, want 0.5", state.Display)
	}

	state = pressKeys(t, sess.ID, "", `{"kind":"backspace"}`, `{"kind":"backspace"}`)
	if state.Display != "0" {
		t.Errorf("after backspaces display = %q, want 0", state.Display)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	first := newSession(t, "")
	second := newSession(t, "")

	pressKeys(t, first.ID, "", `{"kind":"digit","value":"9"}`)

	resp := doRequest(t, http.MethodGet, testEnv.BaseURL()+"/v1/sessions/"+second.ID, "", "")
	var state api.Session
	decodeJSON(t, resp, &state)
	if state.Display != "0" {
		t.Errorf("second session display = %q, want 0", state.Display)
	}
}

func TestOwnersSeeOnlyTheirSessions(t *testing.T) {
	aliceSess := newSession(t, "test-key-alice")

	// Bob cannot see or delete alice's session.
	resp := doRequest(t, http.MethodGet, testEnv.BaseURL()+"/v1/sessions/"+aliceSess.ID, "", "test-key-bob")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-owner get: status %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodDelete, testEnv.BaseURL()+"/v1/sessions/"+aliceSess.ID, "", "test-key-bob")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("cross-owner delete: status %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	// Alice still can.
	resp = doRequest(t, http.MethodGet, testEnv.BaseURL()+"/v1/sessions/"+aliceSess.ID, "", "test-key-alice")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner get: status %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestInvalidBearerKeyRejected(t *testing.T) {
	resp := doRequest(t, http.MethodPost, testEnv.BaseURL()+"/v1/sessions", "", "wrong-key")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestDeleteSessionLifecycle(t *testing.T) {
	sess := newSession(t, "")

	resp := doRequest(t, http.MethodDelete, testEnv.BaseURL()+"/v1/sessions/"+sess.ID, "", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, http.MethodPost, testEnv.BaseURL()+"/v1/sessions/"+sess.ID+"/keys",
		`{"kind":"digit","value":"1"}`, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("press after delete: status %d, want 404", resp.StatusCode)
	}
}
