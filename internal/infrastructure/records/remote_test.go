package records

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/formulary/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRemote(url string) *RemoteSource {
	s := NewRemoteSource(RemoteConfig{BaseURL: url, RequestsPerSecond: 1000, Burst: 100}, nil)
	s.backoffBase = time.Millisecond
	return s
}

func TestNewRemoteSource_Defaults(t *testing.T) {
	s := NewRemoteSource(RemoteConfig{BaseURL: "https://records.example.com/"}, nil)

	assert.Equal(t, "https://records.example.com", s.baseURL)
	assert.Equal(t, 30*time.Second, s.httpClient.Timeout)
	assert.Equal(t, 10, s.rateLimiter.Burst())
	assert.Equal(t, 500*time.Millisecond, s.backoffBase)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(500*time.Millisecond, tt.attempt))
		})
	}
}

func TestRemoteSource_ListHerbs_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/herbs", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"_id": "h1", "pinyinName": "Ren Shen", "englishNames": ["Ginseng", "Asian Ginseng"]},
			{"_id": "h2", "name": ["Gan Cao"], "pharmaceuticalName": null, "channelsEntered": "Heart, Lung; Spleen"}
		]`))
	}))
	defer server.Close()

	herbs, err := newTestRemote(server.URL).ListHerbs(context.Background())

	require.NoError(t, err)
	require.Len(t, herbs, 2)
	assert.Equal(t, "Ren Shen", herbs[0].DisplayName())
	assert.Equal(t, domain.Names{"Ginseng", "Asian Ginseng"}, herbs[0].EnglishNames)
	assert.Equal(t, "Gan Cao", herbs[1].DisplayName())
	assert.Equal(t, domain.DelimitedList{"Heart", "Lung", "Spleen"}, herbs[1].ChannelsEntered)
}

func TestRemoteSource_ListFormulas_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/formulas", r.URL.Path)
		w.Write([]byte(`[{"_id": "f1", "pinyinName": "Si Jun Zi Tang", "origin": "classical",
			"ingredientsAndDosages": ["Ren Shen 9g", "Gan Cao 6g"]}]`))
	}))
	defer server.Close()

	formulas, err := newTestRemote(server.URL).ListFormulas(context.Background())

	require.NoError(t, err)
	require.Len(t, formulas, 1)
	assert.Equal(t, "Si Jun Zi Tang", formulas[0].DisplayName())
	assert.Equal(t, domain.OriginClassical, formulas[0].Origin)
	assert.Len(t, formulas[0].IngredientsAndDosages, 2)
}

func TestRemoteSource_NotFound_IsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	herbs, err := newTestRemote(server.URL).ListHerbs(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, herbs)
	assert.Empty(t, herbs)
}

func TestRemoteSource_ServerError_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[{"pinyinName": "Bai Zhu"}]`))
	}))
	defer server.Close()

	herbs, err := newTestRemote(server.URL).ListHerbs(context.Background())

	require.NoError(t, err)
	assert.Len(t, herbs, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRemoteSource_TooManyRequests_Retries(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestRemote(server.URL).ListFormulas(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestRemoteSource_ClientError_NoRetry(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	herbs, err := newTestRemote(server.URL).ListHerbs(context.Background())

	assert.Nil(t, herbs)
	assert.ErrorIs(t, err, domain.ErrRecordSourceFailure)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRemoteSource_AllRetriesFail(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestRemote(server.URL).ListHerbs(context.Background())

	assert.ErrorIs(t, err, domain.ErrRecordSourceFailure)
	assert.Equal(t, int32(maxAttempts), atomic.LoadInt32(&attempts))
}

func TestRemoteSource_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := newTestRemote(server.URL).ListHerbs(context.Background())

	assert.ErrorIs(t, err, domain.ErrRecordSourceFailure)
}

func TestRemoteSource_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := newTestRemote(server.URL)
	s.backoffBase = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.ListHerbs(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
