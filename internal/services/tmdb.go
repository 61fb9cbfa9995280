// TMDB API implementation of [Catalog]
//
// TMDB API response types based on https://developer.themoviedb.org/reference
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/desertthunder/cinx/internal/models"
	"github.com/desertthunder/cinx/internal/shared"
)

const tmdbDateLayout = "2006-01-02"

// TMDBMovie represents a movie in TMDB list and detail responses.
type TMDBMovie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"` // only present on detail responses
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	PosterPath  *string `json:"poster_path"`
}

// TMDBPage represents a paginated list of movies.
type TMDBPage struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
	Results      []TMDBMovie `json:"results"`
}

type tmdbError struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// ToMovie converts a TMDB movie to [models.Movie]. Unparseable release dates are left zero.
func (m TMDBMovie) ToMovie() models.Movie {
	movie := models.Movie{
		ID:          m.ID,
		Title:       m.Title,
		Overview:    m.Overview,
		Runtime:     m.Runtime,
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
	}
	if m.PosterPath != nil {
		movie.PosterPath = *m.PosterPath
	}
	if t, err := time.Parse(tmdbDateLayout, m.ReleaseDate); err == nil {
		movie.ReleaseDate = t
	}
	return movie
}

func (p TMDBPage) toPage() *models.Page {
	page := &models.Page{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      make([]models.Movie, 0, len(p.Results)),
	}
	for _, m := range p.Results {
		page.Results = append(page.Results, m.ToMovie())
	}
	return page
}

// TMDBService implements [Catalog] for the TMDB v3 API.
//
// Authenticates with a v4 read access token (sent as a bearer token through [oauth2]) or, failing that, a v3 api_key query parameter.
// All requests share a single [rate.Limiter].
type TMDBService struct {
	baseURL      string
	imageBaseURL string
	posterSize   string
	language     string
	region       string
	apiKey       string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewTMDBService creates a TMDB client from the catalog configuration.
func NewTMDBService(ctx context.Context, cfg shared.CatalogConfig) (*TMDBService, error) {
	if cfg.AccessToken == "" && cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: set catalog.access_token or catalog.api_key", shared.ErrMissingCredentials)
	}

	var client *http.Client
	if cfg.AccessToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
	} else {
		client = &http.Client{}
	}
	client.Timeout = cfg.Timeout()

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &TMDBService{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		posterSize:   cfg.PosterSize,
		language:     cfg.Language,
		region:       cfg.Region,
		apiKey:       cfg.APIKey,
		httpClient:   client,
		limiter:      rate.NewLimiter(limit, 1),
	}, nil
}

func (s *TMDBService) Name() string {
	return "TMDB"
}

// Search returns one page of movies matching query.
func (s *TMDBService) Search(ctx context.Context, query string, page int) (*models.Page, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(max(page, 1)))
	params.Set("include_adult", "false")

	var response TMDBPage
	if err := s.getJSON(ctx, "/search/movie", params, &response); err != nil {
		return nil, err
	}
	return response.toPage(), nil
}

// Upcoming returns one page of upcoming releases for the configured region.
func (s *TMDBService) Upcoming(ctx context.Context, page int) (*models.Page, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(max(page, 1)))
	if s.region != "" {
		params.Set("region", s.region)
	}

	var response TMDBPage
	if err := s.getJSON(ctx, "/movie/upcoming", params, &response); err != nil {
		return nil, err
	}
	return response.toPage(), nil
}

// Movie loads the details of a single movie.
func (s *TMDBService) Movie(ctx context.Context, id int64) (*models.Movie, error) {
	var response TMDBMovie
	if err := s.getJSON(ctx, fmt.Sprintf("/movie/%d", id), url.Values{}, &response); err != nil {
		return nil, err
	}
	movie := response.ToMovie()
	return &movie, nil
}

// Poster downloads the poster at path in the configured size.
func (s *TMDBService) Poster(ctx context.Context, path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty poster path", shared.ErrInvalidInput)
	}

	size := s.posterSize
	if size == "" {
		size = "w342"
	}
	imageURL := fmt.Sprintf("%s/%s/%s", s.imageBaseURL, size, strings.TrimLeft(path, "/"))

	resp, err := s.do(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poster: %w", err)
	}
	return data, nil
}

// RawResponse is an undecoded catalog response.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw performs an authenticated GET of path (relative to the API base URL) and returns the response whatever its status.
func (s *TMDBService) Raw(ctx context.Context, path string) (*RawResponse, error) {
	endpoint, query, _ := strings.Cut(path, "?")
	params, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	req, err := s.newRequest(ctx, s.endpoint(endpoint, params))
	if err != nil {
		return nil, err
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	raw := &RawResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		raw.IsJSON = true
		raw.JSONData = jsonData
	}
	return raw, nil
}

func (s *TMDBService) endpoint(path string, params url.Values) string {
	if s.language != "" && params.Get("language") == "" {
		params.Set("language", s.language)
	}
	if s.apiKey != "" {
		params.Set("api_key", s.apiKey)
	}
	u := s.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := params.Encode(); encoded != "" {
		u += "?" + encoded
	}
	return u
}

func (s *TMDBService) newRequest(ctx context.Context, u string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// getJSON performs a rate-limited GET of a catalog endpoint and decodes the response into result.
func (s *TMDBService) getJSON(ctx context.Context, path string, params url.Values, result any) error {
	resp, err := s.do(ctx, s.endpoint(path, params))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// do waits for the limiter, performs the request and maps error statuses to shared errors.
// The caller closes the body of a successful response.
func (s *TMDBService) do(ctx context.Context, u string) (*http.Response, error) {
	req, err := s.newRequest(ctx, u)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	var apiErr tmdbError
	_ = json.NewDecoder(resp.Body).Decode(&apiErr)
	message := apiErr.StatusMessage
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingCredentials, message)
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", shared.ErrMovieNotFound, message)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", shared.ErrRateLimited, message)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrServiceUnavailable, resp.StatusCode, message)
	default:
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, message)
	}
}
