// Package wikitool provides a Wikipedia lookup tool backed by the
// MediaWiki search API.
package wikitool

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kadirpekel/tribunal/pkg/httpclient"
	"github.com/kadirpekel/tribunal/pkg/tool"
	"github.com/kadirpekel/tribunal/pkg/tool/functiontool"
)

const noResults = "No good Wikipedia Search Result was found"

// SearchArgs are the arguments of the wikipedia tool.
type SearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=Search query for Wikipedia"`
}

// Config configures the wikipedia tool.
type Config struct {
	// BaseURL is the MediaWiki API endpoint.
	BaseURL string

	// MaxResults bounds the number of pages summarised. Defaults to 3.
	MaxResults int

	// MaxChars truncates the combined output. Defaults to 4000.
	MaxChars int

	Timeout    time.Duration
	MaxRetries int
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://en.wikipedia.org/w/api.php"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 3
	}
	if c.MaxChars <= 0 {
		c.MaxChars = 4000
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

// New creates the wikipedia tool. An empty search is a normal result, not
// an error. Failure to reach Wikipedia after retries is a hard error.
func New(cfg Config) (tool.CallableTool, error) {
	cfg.SetDefaults()
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid wikipedia base url: %w", err)
	}

	hc := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		httpclient.WithMaxRetries(cfg.MaxRetries),
	)

	return functiontool.NewWithValidation(
		functiontool.Config{
			Name:        "wikipedia",
			Description: "Search Wikipedia and return summaries of the most relevant pages. Input should be a search query.",
		},
		func(ctx tool.Context, args SearchArgs) (map[string]any, error) {
			return search(ctx, cfg, hc, args.Query)
		},
		func(args SearchArgs) error {
			if strings.TrimSpace(args.Query) == "" {
				return fmt.Errorf("query must not be empty")
			}
			return nil
		},
	)
}

type apiResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Index   int    `json:"index"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

func search(ctx tool.Context, cfg Config, hc *httpclient.Client, query string) (map[string]any, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"generator":     {"search"},
		"gsrsearch":     {query},
		"gsrlimit":      {strconv.Itoa(cfg.MaxResults)},
		"prop":          {"extracts"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build wikipedia request: %w", err)
	}

	resp, err := hc.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("wikipedia request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wikipedia returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read wikipedia response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode wikipedia response: %w", err)
	}

	pages := parsed.Query.Pages
	if len(pages) == 0 {
		return map[string]any{"status": "no_results", "result": noResults}, nil
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	summaries := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Extract == "" {
			continue
		}
		summaries = append(summaries, fmt.Sprintf("Page: %s\nSummary: %s", p.Title, p.Extract))
	}
	if len(summaries) == 0 {
		return map[string]any{"status": "no_results", "result": noResults}, nil
	}

	result := strings.Join(summaries, "\n\n")
	if len(result) > cfg.MaxChars {
		result = result[:cfg.MaxChars]
	}
	return map[string]any{"status": "success", "result": result}, nil
}
