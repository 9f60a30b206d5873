// Package upstream talks to the remote hotels REST API.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tripnest/catalog/internal/domain"
	"github.com/tripnest/catalog/internal/storage"
)

var (
	ErrInvalidPayload    = errors.New("upstream: invalid hotel payload")
	ErrUnsupportedDomain = errors.New("upstream: domain not served")
	ErrMissingCity       = errors.New("upstream: city is required")
)

// HotelPage is one page of the remote API response.
type HotelPage struct {
	Content       []map[string]any `json:"content"`
	TotalPages    int              `json:"totalPages"`
	TotalElements int              `json:"totalElements"`
	Number        int              `json:"number"`
}

type FetchOptions struct {
	City       string
	Query      string
	Page       int
	Size       int
	SortBy     string
	SortDir    string
	ActiveOnly bool
}

type FilterOptions struct {
	MinPrice  *float64
	MaxPrice  *float64
	Rating    *float64
	Amenities []string
	Page      int
	Size      int
	SortBy    string
	SortDir   string
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for baseURL, e.g. "https://host/api/v1/hotels".
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchHotels lists hotels of a city, or runs a text search when opts.Query is set.
func (c *Client) FetchHotels(ctx context.Context, opts FetchOptions) (HotelPage, error) {
	var endpoint string
	q := url.Values{}
	if opts.Query != "" {
		endpoint = c.baseURL + "/search"
		q.Set("query", opts.Query)
	} else {
		if opts.City == "" {
			return HotelPage{}, ErrMissingCity
		}
		endpoint = c.baseURL + "/city/" + url.PathEscape(opts.City)
		q.Set("activeOnly", strconv.FormatBool(opts.ActiveOnly))
	}
	setPaging(q, opts.Page, opts.Size, opts.SortBy, opts.SortDir)
	return c.get(ctx, endpoint, q)
}

// FetchFilteredHotels calls the advanced search endpoint.
func (c *Client) FetchFilteredHotels(ctx context.Context, opts FilterOptions) (HotelPage, error) {
	q := url.Values{}
	if opts.MinPrice != nil {
		q.Set("minPrice", formatFloat(*opts.MinPrice))
	}
	if opts.MaxPrice != nil {
		q.Set("maxPrice", formatFloat(*opts.MaxPrice))
	}
	if opts.Rating != nil {
		q.Set("rating", formatFloat(*opts.Rating))
	}
	if len(opts.Amenities) > 0 {
		q.Set("amenities", strings.ToLower(strings.Join(opts.Amenities, ",")))
	}
	setPaging(q, opts.Page, opts.Size, opts.SortBy, opts.SortDir)
	return c.get(ctx, c.baseURL+"/search/advanced", q)
}

func (c *Client) get(ctx context.Context, endpoint string, q url.Values) (HotelPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return HotelPage{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ngrok-skip-browser-warning", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return HotelPage{}, fmt.Errorf("get %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return HotelPage{}, fmt.Errorf("get %s: unexpected status %d", endpoint, resp.StatusCode)
	}

	var page HotelPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return HotelPage{}, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	if page.Content == nil {
		return HotelPage{}, ErrInvalidPayload
	}
	return page, nil
}

func setPaging(q url.Values, page, size int, sortBy, sortDir string) {
	if size <= 0 {
		size = 10
	}
	if sortBy == "" {
		sortBy = "rating"
	}
	if sortDir != "asc" {
		sortDir = "desc"
	}
	q.Set("page", strconv.Itoa(max(page, 0)))
	q.Set("size", strconv.Itoa(size))
	q.Set("sortBy", sortBy)
	q.Set("sortDir", sortDir)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// TransformHotels renames the API fields into the raw listing shape the
// normalizer reads. Values are passed through untouched.
func TransformHotels(p HotelPage) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(p.Content))
	for _, h := range p.Content {
		raw := domain.RawRecord{
			"id":            h["id"],
			"name":          h["name"],
			"location":      h["city"],
			"rating":        h["rating"],
			"reviewCount":   h["bookings"],
			"pricePerNight": h["revenue"],
			"description":   h["description"],
			"amenities":     h["amenities"],
			"thumbnail":     h["thumbnail"],
		}
		if v, ok := h["starCategory"]; ok {
			raw["starCategory"] = v
		}
		if v, ok := h["active"]; ok {
			raw["isAvailable"] = v
		}
		out = append(out, raw)
	}
	return out
}

const defaultMaxPages = 20

// HotelSource serves hotels from the remote API; other domains are refused
// so a Router or FallbackSource can handle them. Every page of the result is
// fetched, up to MaxPages.
type HotelSource struct {
	Client   *Client
	City     string
	PageSize int
	MaxPages int
	Logger   *slog.Logger
}

func (s *HotelSource) List(ctx context.Context, d domain.Domain) ([]domain.RawRecord, error) {
	return s.ListHinted(ctx, d, storage.Hints{})
}

// ListHinted uses the advanced search when price, rating or amenities are
// given, the text search for a bare query and the city listing otherwise.
func (s *HotelSource) ListHinted(ctx context.Context, d domain.Domain, h storage.Hints) ([]domain.RawRecord, error) {
	if d != domain.DomainHotel {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDomain, d)
	}

	var fetch func(page int) (HotelPage, error)
	switch {
	case h.MinPrice != nil || h.MaxPrice != nil || h.MinRating != nil || len(h.Amenities) > 0:
		fetch = func(page int) (HotelPage, error) {
			return s.Client.FetchFilteredHotels(ctx, FilterOptions{
				MinPrice:  h.MinPrice,
				MaxPrice:  h.MaxPrice,
				Rating:    h.MinRating,
				Amenities: h.Amenities,
				Page:      page,
				Size:      s.PageSize,
			})
		}
	default:
		fetch = func(page int) (HotelPage, error) {
			return s.Client.FetchHotels(ctx, FetchOptions{
				City:  s.City,
				Query: h.Search,
				Page:  page,
				Size:  s.PageSize,
			})
		}
	}
	return s.fetchAll(ctx, fetch)
}

func (s *HotelSource) fetchAll(ctx context.Context, fetch func(page int) (HotelPage, error)) ([]domain.RawRecord, error) {
	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	var out []domain.RawRecord
	for page := 0; page < maxPages; page++ {
		p, err := fetch(page)
		if err != nil {
			return nil, err
		}
		out = append(out, TransformHotels(p)...)
		if len(p.Content) == 0 || page+1 >= p.TotalPages {
			return out, nil
		}
		if p.TotalPages > maxPages && page+1 == maxPages {
			s.logger().WarnContext(ctx, "upstream result truncated",
				"pages", p.TotalPages, "max_pages", maxPages, "total", p.TotalElements, "fetched", len(out))
		}
	}
	return out, nil
}

func (s *HotelSource) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}
