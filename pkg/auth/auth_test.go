package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

// stubAuthenticator returns a fixed result.
type stubAuthenticator struct {
	result AuthResult
	called *bool
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _ *http.Request) AuthResult {
	if s.called != nil {
		*s.called = true
	}
	return s.result
}

func newRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "/v1/sessions", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	return req
}

func TestChainStopsOnYes(t *testing.T) {
	var secondCalled bool
	chain := AuthChain{
		Authenticators: []Authenticator{
			&stubAuthenticator{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "alice"}}},
			&stubAuthenticator{result: AuthResult{Decision: Yes}, called: &secondCalled},
		},
	}

	result := chain.Authenticate(context.Background(), newRequest(t))
	if result.Decision != Yes || result.Identity.Subject != "alice" {
		t.Errorf("result = %+v, want Yes/alice", result)
	}
	if secondCalled {
		t.Error("chain continued past a Yes")
	}
}

func TestChainStopsOnNo(t *testing.T) {
	var secondCalled bool
	wantErr := errors.New("bad credentials")
	chain := AuthChain{
		Authenticators: []Authenticator{
			&stubAuthenticator{result: AuthResult{Decision: No, Err: wantErr}},
			&stubAuthenticator{result: AuthResult{Decision: Yes}, called: &secondCalled},
		},
	}

	result := chain.Authenticate(context.Background(), newRequest(t))
	if result.Decision != No || result.Err != wantErr {
		t.Errorf("result = %+v, want No with error", result)
	}
	if secondCalled {
		t.Error("chain continued past a No")
	}
}

func TestChainSkipsAbstain(t *testing.T) {
	chain := AuthChain{
		Authenticators: []Authenticator{
			&stubAuthenticator{result: AuthResult{Decision: Abstain}},
			&stubAuthenticator{result: AuthResult{Decision: Yes, Identity: &Identity{Subject: "bob"}}},
		},
	}

	result := chain.Authenticate(context.Background(), newRequest(t))
	if result.Decision != Yes || result.Identity.Subject != "bob" {
		t.Errorf("result = %+v, want Yes/bob", result)
	}
}

func TestChainDefaultDecision(t *testing.T) {
	abstainer := &stubAuthenticator{result: AuthResult{Decision: Abstain}}

	open := AuthChain{Authenticators: []Authenticator{abstainer}, DefaultDecision: Yes}
	result := open.Authenticate(context.Background(), newRequest(t))
	if result.Decision != Yes || result.Identity.Subject != "anonymous" {
		t.Errorf("open chain result = %+v, want Yes/anonymous", result)
	}

	closed := AuthChain{Authenticators: []Authenticator{abstainer}, DefaultDecision: No}
	result = closed.Authenticate(context.Background(), newRequest(t))
	if result.Decision != No || !errors.Is(result.Err, ErrUnauthenticated) {
		t.Errorf("closed chain result = %+v, want No/ErrUnauthenticated", result)
	}
}

func TestIdentityContextRoundTrip(t *testing.T) {
	want := &Identity{Subject: "alice", ServiceTier: "pro", Scopes: []string{"calc"}}
	ctx := SetIdentity(context.Background(), want)

	got := IdentityFromContext(ctx)
	if got == nil || got.Subject != "alice" || got.ServiceTier != "pro" {
		t.Errorf("IdentityFromContext = %+v", got)
	}

	if IdentityFromContext(context.Background()) != nil {
		t.Error("empty context should carry no identity")
	}
}

func TestInProcessLimiter(t *testing.T) {
	limiter := NewInProcessLimiter(map[string]TierConfig{
		"low": {RequestsPerMinute: 2},
	}, 100)

	id := &Identity{Subject: "alice", ServiceTier: "low"}
	ctx := context.Background()

	for i := range 2 {
		if err := limiter.Allow(ctx, id); err != nil {
			t.Fatalf("request %d rejected: %v", i+1, err)
		}
	}
	if err := limiter.Allow(ctx, id); !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("third request err = %v, want ErrTooManyRequests", err)
	}

	// A different subject in the same tier has its own window.
	other := &Identity{Subject: "bob", ServiceTier: "low"}
	if err := limiter.Allow(ctx, other); err != nil {
		t.Errorf("other subject rejected: %v", err)
	}
}

func TestInProcessLimiterUnlimitedTier(t *testing.T) {
	limiter := NewInProcessLimiter(map[string]TierConfig{
		"free": {RequestsPerMinute: 0},
	}, 1)

	id := &Identity{Subject: "alice", ServiceTier: "free"}
	for range 10 {
		if err := limiter.Allow(context.Background(), id); err != nil {
			t.Fatalf("unlimited tier rejected: %v", err)
		}
	}
}
