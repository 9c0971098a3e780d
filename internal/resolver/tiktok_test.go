package resolver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFollowsRedirects(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/ZMabc/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, srv.URL+"/hop", http.StatusFound)
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/@kid/video/7234567890", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/@kid/video/7234567890", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := NewTikTok(2*time.Second, NewCache("", DefaultCacheTTL))
	got, err := r.Resolve(context.Background(), srv.URL+"/ZMabc/")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/@kid/video/7234567890", got)
	assert.EqualValues(t, 1, hits.Load())
}

func TestResolveFailsOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	r := NewTikTok(2*time.Second, nil)
	_, err := r.Resolve(context.Background(), srv.URL+"/gone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolved))
}

func TestResolveTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	r := NewTikTok(50*time.Millisecond, nil)
	_, err := r.Resolve(context.Background(), srv.URL+"/slow")
	assert.Error(t, err)
}

func TestResolveCollapsesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewTikTok(5*time.Second, nil)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.Resolve(context.Background(), srv.URL+"/same")
		}(i)
	}

	// Give the goroutines time to join the in-flight call
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, hits.Load())
	for _, got := range results {
		assert.Equal(t, srv.URL+"/same", got)
	}
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c := NewCache("", time.Minute)
	assert.Nil(t, c.Client())

	_, ok, err := c.Get(context.Background(), "x")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Set(context.Background(), "x", "y"))
	assert.NoError(t, c.Close())
}
