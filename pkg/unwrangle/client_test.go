package unwrangle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantResults int
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"success": true,
				"total_results": 2,
				"no_of_pages": 1,
				"result_count": 2,
				"results": [
					{"model_no": "K-2362-8", "url": "https://www.fergusonhome.com/p/1", "variants": [{"model_no": "K-2362-8", "url": "https://www.fergusonhome.com/p/1?uid=100"}]},
					{"model_no": "K-2362-1", "url": "https://www.fergusonhome.com/p/2"}
				],
				"credits_used": 10
			}`,
			wantResults: 2,
		},
		{
			name:    "unsuccessful_payload",
			status:  http.StatusOK,
			body:    `{"success": false}`,
			wantErr: "unsuccessful response",
		},
		{
			name:    "server_error",
			status:  http.StatusInternalServerError,
			body:    `{"error": "upstream scraper failed"}`,
			wantErr: "unexpected status 500",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				q := r.URL.Query()
				assert.Equal(t, PlatformSearch, q.Get("platform"))
				assert.Equal(t, "K-2362-8", q.Get("search"))
				assert.Equal(t, "1", q.Get("page"))
				assert.Equal(t, "test-key", q.Get("api_key"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))

			resp, err := client.Search(context.Background(), "K-2362-8", 0)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			assert.True(t, resp.Success)
			require.Len(t, resp.Results, tt.wantResults)
			assert.Equal(t, "K-2362-8", resp.Results[0].ModelNo())
			require.Len(t, resp.Results[0].Variants(), 1)
			assert.Equal(t, "https://www.fergusonhome.com/p/1?uid=100", resp.Results[0].Variants()[0].URL())
		})
	}
}

func TestDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, PlatformDetail, q.Get("platform"))
		assert.Equal(t, "https://www.fergusonhome.com/p/1?uid=100", q.Get("url"))
		assert.Equal(t, "test-key", q.Get("api_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"result_count": 1,
			"detail": {"name": "Cachet Toilet Seat", "model_no": "K-2362-8", "price": 312.75, "variants": [{"id": 100, "model_number": "K-2362-8"}]},
			"credits_used": 10
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.Detail(context.Background(), "https://www.fergusonhome.com/p/1?uid=100")
	require.NoError(t, err)
	assert.Equal(t, "Cachet Toilet Seat", resp.Detail.Str("name"))
	assert.Equal(t, "K-2362-8", resp.Detail.ModelNo())
	require.Len(t, resp.Detail.Variants(), 1)
	assert.Equal(t, 100, resp.Detail.Variants()[0].Int("id"))
}

func TestDetailUnsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success": false}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))

	resp, err := client.Detail(context.Background(), "https://www.fergusonhome.com/p/1")
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Contains(t, err.Error(), "unsuccessful response")
}

func TestProductAccessorsTolerateMissingFields(t *testing.T) {
	p := Product{}
	assert.Empty(t, p.ModelNo())
	assert.Empty(t, p.URL())
	assert.Nil(t, p.Variants())
	assert.Zero(t, p.Int("id"))
}
