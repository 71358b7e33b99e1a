package probe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fake checker you can control
type fakeChecker struct {
	results []CheckResult
	errs    []error
	i       int
}

func (f *fakeChecker) Check(ctx context.Context, target string) (CheckResult, error) {
	if f.i >= len(f.results) {
		return CheckResult{Success: false, Message: "no more"}, nil
	}
	r := f.results[f.i]
	var err error
	if f.i < len(f.errs) {
		err = f.errs[f.i]
	}
	f.i++
	return r, err
}

func TestRetryChecker_SucceedsAfterRetry(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Success: false, Message: "first fail"},
			{Success: true, Message: "ok"},
		},
	}
	rc := &RetryChecker{
		Inner:    f,
		Attempts: 3,
		Backoff:  10 * time.Millisecond,
	}
	out, err := rc.Check(context.Background(), "a.example")
	if err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Message != "ok" {
		t.Fatalf("expected success after retry, got %+v", out)
	}
}

func TestRetryChecker_AllFailAnnotates(t *testing.T) {
	f := &fakeChecker{
		results: []CheckResult{
			{Success: false, Message: "fail1"},
			{Success: false, Message: "fail2"},
		},
	}
	rc := &RetryChecker{Inner: f, Attempts: 2}
	out, err := rc.Check(context.Background(), "a.example")
	if err != nil {
		t.Fatal(err)
	}
	if out.Success {
		t.Fatalf("expected failure, got success")
	}
	if !strings.HasPrefix(out.Message, "fail2") || !strings.Contains(out.Message, "2 attempts") {
		t.Fatalf("expected annotated last message, got %q", out.Message)
	}
}

func TestRetryChecker_ErrorStopsImmediately(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeChecker{
		results: []CheckResult{{}, {Success: true}},
		errs:    []error{boom},
	}
	rc := &RetryChecker{Inner: f, Attempts: 3}
	if _, err := rc.Check(context.Background(), "a.example"); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if f.i != 1 {
		t.Fatalf("errors must not be retried, inner called %d times", f.i)
	}
}

func TestRetryChecker_BackoffHonorsContextAndKeepsVerdict(t *testing.T) {
	f := &fakeChecker{results: []CheckResult{{Message: "down"}, {Message: "down"}}}
	rc := &RetryChecker{Inner: f, Attempts: 2, Backoff: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	out, err := rc.Check(ctx, "a.example")
	if err != nil || out.Success || out.Message != "down" {
		t.Fatalf("want the failed verdict, got %+v err=%v", out, err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("backoff ignored the context")
	}
}

// ctxChecker fails once, then blocks until the context ends.
type ctxChecker struct{ calls int }

func (c *ctxChecker) Check(ctx context.Context, target string) (CheckResult, error) {
	c.calls++
	if c.calls == 1 {
		return CheckResult{Success: false, Message: "timeout awaiting headers"}, nil
	}
	<-ctx.Done()
	return CheckResult{}, ctx.Err()
}

func TestRetryChecker_DeadlineAfterVerdictKeepsVerdict(t *testing.T) {
	rc := &RetryChecker{Inner: &ctxChecker{}, Attempts: 3}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out, err := rc.Check(ctx, "a.example")
	if err != nil {
		t.Fatalf("deadline after a verdict must not become an error: %v", err)
	}
	if out.Success || out.Message != "timeout awaiting headers" {
		t.Fatalf("unexpected verdict: %+v", out)
	}
}

func TestRetryChecker_DeadlineBeforeVerdictIsError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &ctxChecker{calls: 1} // skip the failing first call
	if _, err := (&RetryChecker{Inner: c, Attempts: 2}).Check(ctx, "a.example"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context error, got %v", err)
	}
}

func TestChain_StopsAtFirstFailure(t *testing.T) {
	dns := &fakeChecker{results: []CheckResult{{Name: "DNS", Success: false, Message: "dns=NXDOMAIN"}}}
	http := &fakeChecker{results: []CheckResult{{Name: "HTTP", Success: true}}}
	out, err := NewChain(dns, http).Check(context.Background(), "a.example")
	if err != nil {
		t.Fatal(err)
	}
	if out.Success || out.Message != "dns=NXDOMAIN" {
		t.Fatalf("want DNS failure, got %+v", out)
	}
	if http.i != 0 {
		t.Fatalf("HTTP checker should not run after DNS failure")
	}
}

func TestChain_AllPassReturnsLast(t *testing.T) {
	dns := &fakeChecker{results: []CheckResult{{Name: "DNS", Success: true}}}
	http := &fakeChecker{results: []CheckResult{{Name: "HTTP", Success: true, Message: "200 OK"}}}
	out, err := NewChain(dns, http).Check(context.Background(), "a.example")
	if err != nil || !out.Success || out.Name != "HTTP" {
		t.Fatalf("want HTTP success, got %+v err=%v", out, err)
	}
	if _, err := NewChain().Check(context.Background(), "a.example"); err == nil {
		t.Fatalf("empty chain should error")
	}
}

func TestCheckDNS_InvalidName(t *testing.T) {
	for _, in := range []string{"", "  ", "https://a.example", "a b"} {
		if got := CheckDNS(context.Background(), in).Class; got != DNSInvalidName {
			t.Fatalf("CheckDNS(%q) class=%s", in, got)
		}
	}
}
