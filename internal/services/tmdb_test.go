package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/cinx/internal/shared"
	tu "github.com/desertthunder/cinx/internal/testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc, mutate func(*shared.CatalogConfig)) *TMDBService {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := shared.DefaultConfig().Catalog
	cfg.BaseURL = server.URL + "/3"
	cfg.ImageBaseURL = server.URL + "/t/p"
	cfg.AccessToken = "read-token"
	cfg.RateLimit = 0
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := NewTMDBService(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestTMDBService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Missing Credentials", func(t *testing.T) {
			cfg := shared.DefaultConfig().Catalog
			cfg.AccessToken, cfg.APIKey = "", ""
			if _, err := NewTMDBService(context.Background(), cfg); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Name", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
			if srv.Name() != "TMDB" {
				t.Errorf("expected TMDB, got %s", srv.Name())
			}
		})
	})

	t.Run("Authentication", func(t *testing.T) {
		t.Run("Bearer Token", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer read-token" {
					t.Errorf("expected bearer token, got %q", got)
				}
				if r.URL.Query().Has("api_key") {
					t.Error("expected no api_key with a bearer token")
				}
				writeJSON(w, http.StatusOK, TMDBMovie{ID: 1, Title: "Heat"})
			}, nil)

			if _, err := srv.Movie(context.Background(), 1); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})

		t.Run("API Key", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("api_key"); got != "v3-key" {
					t.Errorf("expected api_key v3-key, got %q", got)
				}
				if r.Header.Get("Authorization") != "" {
					t.Error("expected no Authorization header")
				}
				writeJSON(w, http.StatusOK, TMDBMovie{ID: 1, Title: "Heat"})
			}, func(cfg *shared.CatalogConfig) {
				cfg.AccessToken = ""
				cfg.APIKey = "v3-key"
			})

			if _, err := srv.Movie(context.Background(), 1); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	})

	t.Run("Search", func(t *testing.T) {
		t.Run("Maps Results", func(t *testing.T) {
			poster := "/heat.jpg"
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/3/search/movie" {
					t.Errorf("expected path /3/search/movie, got %s", r.URL.Path)
				}
				q := r.URL.Query()
				if q.Get("query") != "heat" || q.Get("page") != "2" || q.Get("language") != "en-US" {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				writeJSON(w, http.StatusOK, TMDBPage{
					Page: 2, TotalPages: 3, TotalResults: 41,
					Results: []TMDBMovie{
						{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", VoteAverage: 7.9, PosterPath: &poster},
						{ID: 1, Title: "Heatwave", ReleaseDate: ""},
					},
				})
			}, nil)

			page, err := srv.Search(context.Background(), "heat", 2)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page.Page != 2 || page.TotalPages != 3 || len(page.Results) != 2 {
				t.Fatalf("unexpected page %+v", page)
			}
			heat := page.Results[0]
			if heat.PosterPath != "/heat.jpg" || heat.ReleaseDate.Year() != 1995 {
				t.Errorf("unexpected movie %+v", heat)
			}
			if !page.Results[1].ReleaseDate.IsZero() {
				t.Error("expected zero release date for empty value")
			}
		})

		t.Run("Empty Query", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				t.Error("expected no request")
			}, nil)
			if _, err := srv.Search(context.Background(), "  ", 1); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Page Defaults To 1", func(t *testing.T) {
			srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("page") != "1" {
					t.Errorf("expected page 1, got %s", r.URL.Query().Get("page"))
				}
				writeJSON(w, http.StatusOK, TMDBPage{Page: 1})
			}, nil)
			if _, err := srv.Search(context.Background(), "alien", 0); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	})

	t.Run("Upcoming", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/3/movie/upcoming" || r.URL.Query().Get("region") != "DE" {
				t.Errorf("unexpected request %s", r.URL)
			}
			writeJSON(w, http.StatusOK, TMDBPage{Page: 1, Results: []TMDBMovie{{ID: 5, Title: "Soon", ReleaseDate: "2027-01-01"}}})
		}, func(cfg *shared.CatalogConfig) { cfg.Region = "DE" })

		page, err := srv.Upcoming(context.Background(), 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page.Results) != 1 || page.Results[0].ReleaseDate.Year() != 2027 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("Movie", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/3/movie/949" {
				t.Errorf("expected path /3/movie/949, got %s", r.URL.Path)
			}
			writeJSON(w, http.StatusOK, TMDBMovie{ID: 949, Title: "Heat", Runtime: 170, VoteCount: 6921})
		}, nil)

		movie, err := srv.Movie(context.Background(), 949)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if movie.Runtime != 170 || movie.VoteCount != 6921 || movie.PosterPath != "" {
			t.Errorf("unexpected movie %+v", movie)
		}
	})

	t.Run("Poster", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/t/p/w342/heat.jpg" {
				t.Errorf("expected poster path /t/p/w342/heat.jpg, got %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8, 0xff})
		}, nil)

		data, err := srv.Poster(context.Background(), "/heat.jpg")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(data) != 3 {
			t.Errorf("expected 3 bytes, got %d", len(data))
		}

		if _, err := srv.Poster(context.Background(), ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty path, got %v", err)
		}
	})

	t.Run("Error Statuses", func(t *testing.T) {
		tests := []struct {
			status  int
			wantErr error
		}{
			{http.StatusUnauthorized, shared.ErrMissingCredentials},
			{http.StatusNotFound, shared.ErrMovieNotFound},
			{http.StatusTooManyRequests, shared.ErrRateLimited},
			{http.StatusBadGateway, shared.ErrServiceUnavailable},
			{http.StatusBadRequest, shared.ErrAPIRequest},
		}

		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
					writeJSON(w, tt.status, map[string]any{"status_code": 34, "status_message": "nope"})
				}, nil)

				if _, err := srv.Movie(context.Background(), 1); !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		}, nil)
		if _, err := srv.Movie(context.Background(), 1); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
		srv.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}

		if _, err := srv.Movie(context.Background(), 1); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {}, nil)
		srv.httpClient = &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
			Header:     http.Header{},
		}, nil)}

		if _, err := srv.Poster(context.Background(), "/heat.jpg"); err == nil {
			t.Error("expected read error")
		}
	})

	t.Run("Rate Limit Honours Context", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, TMDBMovie{ID: 1, Title: "Heat"})
		}, func(cfg *shared.CatalogConfig) { cfg.RateLimit = 0.001 })

		if _, err := srv.Movie(context.Background(), 1); err != nil {
			t.Fatalf("first request should use the burst: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := srv.Movie(ctx, 1); err == nil {
			t.Error("expected limiter wait to fail")
		}
	})

	t.Run("Raw", func(t *testing.T) {
		srv := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/3/configuration" || r.URL.Query().Get("x") != "1" {
				t.Errorf("unexpected request %s", r.URL)
			}
			writeJSON(w, http.StatusTeapot, map[string]string{"images": "ok"})
		}, nil)

		resp, err := srv.Raw(context.Background(), "/configuration?x=1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusTeapot || !resp.IsJSON {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}

func TestMovieURL(t *testing.T) {
	if got := MovieURL(949); got != "https://www.themoviedb.org/movie/949" {
		t.Errorf("unexpected url %s", got)
	}
}
