// Package catalog talks to the external book catalogs and the library locator.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moneyshelf/internal/models"
	"moneyshelf/internal/observability"

	"github.com/doyensec/safeurl"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const (
	DefaultRakutenURL     = "https://app.rakuten.co.jp/services/api/BooksBook/Search/20170404"
	DefaultOpenLibraryURL = "https://openlibrary.org/search.json"
	DefaultCalilURL       = "https://api.calil.jp/library"

	// MaxBooks is the number of catalog results read per search.
	MaxBooks = 20
	// MaxLibraries is the number of nearby libraries attached to each book.
	MaxLibraries = 5

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 4 << 20
)

// Config configures a Client. Zero URLs fall back to the public endpoints.
type Config struct {
	RakutenAppID   string
	CalilAppKey    string
	RakutenURL     string
	OpenLibraryURL string
	CalilURL       string
	// RPS bounds outbound requests across all providers. Zero means 1.
	RPS     float64
	Timeout time.Duration
	// HTTPClient overrides the SSRF-safe default client.
	HTTPClient *http.Client
}

// Client queries Rakuten Books, Open Library and Calil.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New builds a Client. Without an explicit HTTPClient it uses a safeurl client
// restricted to http(s) on ports 80 and 443.
func New(cfg Config) *Client {
	if cfg.RakutenURL == "" {
		cfg.RakutenURL = DefaultRakutenURL
	}
	if cfg.OpenLibraryURL == "" {
		cfg.OpenLibraryURL = DefaultOpenLibraryURL
	}
	if cfg.CalilURL == "" {
		cfg.CalilURL = DefaultCalilURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 1
	}

	hc := cfg.HTTPClient
	if hc == nil {
		safeCfg := safeurl.GetConfigBuilder().
			SetTimeout(cfg.Timeout).
			SetAllowedSchemes("http", "https").
			SetAllowedPorts(80, 443).
			Build()
		hc = safeurl.Client(safeCfg).Client
	}

	burst := int(cfg.RPS)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		cfg:     cfg,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), burst),
	}
}

// SearchRakuten returns up to MaxBooks results from Rakuten Books.
func (c *Client) SearchRakuten(ctx context.Context, title string) ([]models.Book, error) {
	params := url.Values{}
	params.Set("applicationId", c.cfg.RakutenAppID)
	params.Set("title", title)
	params.Set("format", "json")
	params.Set("hits", strconv.Itoa(MaxBooks))

	body, err := c.get(ctx, "rakuten", c.cfg.RakutenURL, params)
	if err != nil {
		return nil, err
	}
	return parseRakuten(body)
}

// SearchOpenLibrary returns up to MaxBooks results from Open Library.
func (c *Client) SearchOpenLibrary(ctx context.Context, title string) ([]models.Book, error) {
	params := url.Values{}
	params.Set("title", title)

	body, err := c.get(ctx, "openlibrary", c.cfg.OpenLibraryURL, params)
	if err != nil {
		return nil, err
	}
	return parseOpenLibrary(body)
}

// NearbyLibraries returns up to MaxLibraries libraries near (lat, lon).
func (c *Client) NearbyLibraries(ctx context.Context, lat, lon float64) ([]models.Library, error) {
	params := url.Values{}
	params.Set("appkey", c.cfg.CalilAppKey)
	params.Set("geocode", fmt.Sprintf("%s,%s", formatCoord(lon), formatCoord(lat)))
	params.Set("format", "json")
	params.Set("callback", "")

	body, err := c.get(ctx, "calil", c.cfg.CalilURL, params)
	if err != nil {
		return nil, err
	}
	return parseCalil(body)
}

func (c *Client) get(ctx context.Context, provider, base string, params url.Values) (body []byte, err error) {
	ctx, finish := observability.StartSpan(ctx, "catalog."+provider,
		attribute.String("catalog.provider", provider))
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		observability.ExternalRequests.WithLabelValues(provider, outcome).Inc()
		observability.ExternalLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
		finish(err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, models.NewExternalServiceError(provider, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, models.NewExternalServiceError(provider, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, models.NewExternalServiceError(provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, models.NewExternalServiceError(provider, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, models.NewExternalServiceError(provider, err)
	}
	if !gjson.ValidBytes(body) {
		return nil, models.NewExternalServiceError(provider, fmt.Errorf("malformed JSON response"))
	}
	return body, nil
}

func parseRakuten(body []byte) ([]models.Book, error) {
	books := []models.Book{}
	gjson.GetBytes(body, "Items").ForEach(func(_, entry gjson.Result) bool {
		item := entry.Get("Item")
		if !item.Exists() {
			item = entry
		}
		books = append(books, models.Book{
			Title:     item.Get("title").String(),
			Author:    item.Get("author").String(),
			ISBN:      item.Get("isbn").String(),
			Price:     int(item.Get("itemPrice").Int()),
			Image:     item.Get("largeImageUrl").String(),
			ItemURL:   item.Get("itemUrl").String(),
			Libraries: []models.Library{},
		})
		return len(books) < MaxBooks
	})
	return books, nil
}

func parseOpenLibrary(body []byte) ([]models.Book, error) {
	books := []models.Book{}
	gjson.GetBytes(body, "docs").ForEach(func(_, doc gjson.Result) bool {
		authors := make([]string, 0)
		for _, a := range doc.Get("author_name").Array() {
			authors = append(authors, a.String())
		}
		subjects := make([]string, 0)
		for _, s := range doc.Get("subject").Array() {
			subjects = append(subjects, s.String())
		}

		book := models.Book{
			Title:     doc.Get("title").String(),
			Author:    strings.Join(authors, ", "),
			ISBN:      doc.Get("isbn.0").String(),
			Year:      int(doc.Get("first_publish_year").Int()),
			Tags:      strings.Join(subjects, " "),
			Libraries: []models.Library{},
		}
		if cover := doc.Get("cover_i").Int(); cover != 0 {
			book.Image = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", cover)
		}
		if key := doc.Get("key").String(); key != "" {
			book.ItemURL = "https://openlibrary.org" + key
		}
		books = append(books, book)
		return len(books) < MaxBooks
	})
	return books, nil
}

// parseCalil reads the locator array. Each geocode is "lon,lat"; an
// unparseable geocode leaves the coordinates at zero.
func parseCalil(body []byte) ([]models.Library, error) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, models.NewExternalServiceError("calil", fmt.Errorf("expected a JSON array"))
	}

	libs := []models.Library{}
	root.ForEach(func(_, entry gjson.Result) bool {
		lib := models.Library{
			Name: entry.Get("formal").String(),
			URL:  "https://calil.jp/library/" + entry.Get("systemid").String(),
		}
		if parts := strings.Split(entry.Get("geocode").String(), ","); len(parts) == 2 {
			lon, lonErr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lat, latErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if lonErr == nil && latErr == nil {
				lib.Lat, lib.Lon = lat, lon
			}
		}
		libs = append(libs, lib)
		return len(libs) < MaxLibraries
	})
	return libs, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
