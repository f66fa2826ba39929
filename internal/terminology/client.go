package terminology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/medresolve/medkb-go/internal/apptype"
	"github.com/medresolve/medkb-go/internal/config"
	"github.com/medresolve/medkb-go/internal/metrics"
)

// DefinitionCache stores definitions per concept identifier for the
// lifetime of one processing session. Implementations live in termcache.
type DefinitionCache interface {
	GetDefinitions(ctx context.Context, cui string) ([]apptype.Definition, bool, error)
	PutDefinitions(ctx context.Context, cui string, defs []apptype.Definition) error
}

// Client queries a UMLS-style terminology REST service.
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	maxPages int
	http     *http.Client
	log      *slog.Logger
	cache    DefinitionCache
}

// NewClient builds a terminology client. cache may be nil.
func NewClient(cfg config.TerminologyConfig, logger *slog.Logger, cache DefinitionCache) *Client {
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 25
	}
	maxPages := cfg.MaxPages
	if maxPages < 1 {
		maxPages = 5
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		maxPages: maxPages,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		log:      logger,
		cache:    cache,
	}
}

// conceptStub is one search hit before definitions are attached.
type conceptStub struct {
	UI         string `json:"ui"`
	Name       string `json:"name"`
	RootSource string `json:"rootSource"`
	URI        string `json:"uri"`
}

// Lookup returns up to maxConcepts concepts for term, each enriched with
// its definitions. Concepts without any definition are dropped. Transport
// failures and malformed payloads degrade to whatever was gathered so far;
// this call never returns an error past its boundary.
func (c *Client) Lookup(ctx context.Context, term string, maxConcepts int) []apptype.Concept {
	done := metrics.TimeOp("terminology_lookup")
	success := false
	defer func() { done(success) }()

	if term == "" || maxConcepts < 1 {
		return nil
	}

	var concepts []apptype.Concept
	for page := 1; page <= c.maxPages && len(concepts) < maxConcepts; page++ {
		stubs, err := c.searchPage(ctx, term, page)
		if err != nil {
			c.log.Warn("terminology search degraded to partial results",
				"term", term, "page", page, "error", err)
			return concepts
		}
		if len(stubs) == 0 {
			break
		}
		for _, stub := range stubs {
			if len(concepts) >= maxConcepts {
				break
			}
			defs, err := c.definitions(ctx, stub.UI)
			if err != nil {
				c.log.Warn("definition fetch failed, dropping concept",
					"cui", stub.UI, "error", err)
				continue
			}
			// A concept lacking any definition is not considered found.
			if len(defs) == 0 {
				continue
			}
			concepts = append(concepts, apptype.Concept{
				CUI:         stub.UI,
				Name:        stub.Name,
				Source:      stub.RootSource,
				URI:         stub.URI,
				Definitions: defs,
			})
		}
	}

	success = true
	return concepts
}

// searchPage fetches one page of search results. The UMLS sentinel result
// (ui == "NONE") marks an exhausted result set.
func (c *Client) searchPage(ctx context.Context, term string, page int) ([]conceptStub, error) {
	q := url.Values{}
	q.Set("string", term)
	q.Set("pageNumber", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}

	var payload struct {
		Result struct {
			Results []conceptStub `json:"results"`
		} `json:"result"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/search/current?"+q.Encode(), &payload); err != nil {
		return nil, err
	}

	stubs := make([]conceptStub, 0, len(payload.Result.Results))
	for _, s := range payload.Result.Results {
		if s.UI == "" || s.UI == "NONE" {
			continue
		}
		stubs = append(stubs, s)
	}
	return stubs, nil
}

// definitions fetches the definitions of one concept, consulting the
// session cache first. A 404 from the service means no definitions.
func (c *Client) definitions(ctx context.Context, cui string) ([]apptype.Definition, error) {
	if c.cache != nil {
		defs, hit, err := c.cache.GetDefinitions(ctx, cui)
		if err != nil {
			c.log.Warn("definition cache read failed", "cui", cui, "error", err)
		} else if hit {
			return defs, nil
		}
	}

	q := url.Values{}
	if c.apiKey != "" {
		q.Set("apiKey", c.apiKey)
	}
	endpoint := fmt.Sprintf("%s/content/current/CUI/%s/definitions?%s", c.baseURL, url.PathEscape(cui), q.Encode())

	var payload struct {
		Result []struct {
			RootSource string `json:"rootSource"`
			Value      string `json:"value"`
		} `json:"result"`
	}
	err := c.getJSON(ctx, endpoint, &payload)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			err = nil
		} else {
			return nil, err
		}
	}

	defs := make([]apptype.Definition, 0, len(payload.Result))
	for _, d := range payload.Result {
		if d.Value == "" {
			continue
		}
		defs = append(defs, apptype.Definition{Source: d.RootSource, Text: d.Value})
	}

	if c.cache != nil {
		if err := c.cache.PutDefinitions(ctx, cui, defs); err != nil {
			c.log.Warn("definition cache write failed", "cui", cui, "error", err)
		}
	}
	return defs, nil
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string { return "terminology http status: " + e.status }

// getJSON performs a GET with one retry on client timeout.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	doGet := func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return c.http.Do(req)
	}

	resp, err := doGet()
	if err != nil {
		if isTimeout(err) {
			resp, err = doGet()
		}
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode, status: resp.Status}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode terminology response: %w", err)
	}
	return nil
}

// isTimeout returns true if the error represents a timeout.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
