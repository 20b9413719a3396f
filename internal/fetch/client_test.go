package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(maxRetries int) (*Client, *[]time.Duration) {
	c := NewClient(Options{MaxRetries: maxRetries, RequestDelay: 10 * time.Millisecond})
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c, _ := newTestClient(3)
	body, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if body != "hello" {
		t.Errorf("body = %q", body)
	}
}

func TestGet_RetriesOn429ThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, sleeps := newTestClient(3)
	body, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if body != "ok" {
		t.Errorf("body = %q", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// polite delay + two exponential backoffs: delay*2^1, delay*2^2
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 40 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
}

func TestGet_TerminalOn404(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(3)
	if _, err := c.Get(srv.URL); err == nil {
		t.Fatal("expected error for 404")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 404)", calls)
	}
}

func TestGet_ExhaustsRetriesOn503(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := newTestClient(2)
	_, err := c.Get(srv.URL)
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("err = %v, want retries exhausted", err)
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want last cause (503)", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3 (retries+1)", calls)
	}
}

func TestGet_NetworkErrorLinearBackoff(t *testing.T) {
	// Point at a closed server to force connection errors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, sleeps := newTestClient(2)
	if _, err := c.Get(url); err == nil {
		t.Fatal("expected error")
	}
	// polite delay + linear backoffs: delay*1, delay*2, delay*3
	want := []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep[%d] = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
}

func TestPoliteDelay_JitterWithinBounds(t *testing.T) {
	c := NewClient(Options{RequestDelay: 10 * time.Millisecond, Jitter: 5 * time.Millisecond})
	var slept time.Duration
	c.sleep = func(d time.Duration) { slept = d }
	for i := 0; i < 50; i++ {
		c.politeDelay()
		if slept < 10*time.Millisecond || slept > 15*time.Millisecond {
			t.Fatalf("polite delay %v outside [10ms, 15ms]", slept)
		}
	}
}
