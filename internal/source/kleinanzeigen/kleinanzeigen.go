package kleinanzeigen

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/NiklasMM/ebk-bot/internal/config"
	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/source"

	"github.com/PuerkitoBio/goquery"
)

// Client fetches the Kleinanzeigen search results page for a term. The
// location and radius are baked into the prefix/suffix path segments, so one
// client configured at startup covers every watch.
type Client struct {
	http      *http.Client
	baseURL   string
	prefix    string
	suffix    string
	userAgent string
}

func New(cfg config.Source) *Client {
	return &Client{
		http:      &http.Client{Timeout: cfg.FetchTimeout},
		baseURL:   cfg.BaseURL,
		prefix:    cfg.SearchPrefix,
		suffix:    cfg.SearchSuffix,
		userAgent: cfg.UserAgent,
	}
}

// Fetch returns the listings currently visible for searchTerm, in page order.
// Any transport failure, non-200 status or missing results table comes back
// wrapping source.ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, searchTerm string) ([]models.Listing, error) {
	const op = "source.kleinanzeigen.Fetch"

	searchURL := fmt.Sprintf("%s/%s/%s/%s", c.baseURL, c.prefix, url.PathEscape(searchTerm), c.suffix)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, source.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: %w: status %d", op, source.ErrUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, source.ErrUnavailable, err)
	}

	table := doc.Find("ul#srchrslt-adtable")
	if table.Length() != 1 {
		// An empty result list still renders the table; no table at all
		// means the page shape changed or we got blocked.
		return nil, fmt.Errorf("%s: %w: results table not found", op, source.ErrUnavailable)
	}

	var listings []models.Listing

	table.Find("li").Each(func(_ int, item *goquery.Selection) {
		if l, ok := c.parseItem(item); ok {
			listings = append(listings, l)
		}
	})

	return listings, nil
}

// parseItem extracts one listing from a result row. Rows that don't carry the
// expected ad markup (separators, banners) are skipped.
func (c *Client) parseItem(item *goquery.Selection) (models.Listing, bool) {
	article := item.Find("article")
	main := item.Find("div.aditem-main")
	details := item.Find("div.aditem-details")

	if article.Length() != 1 || main.Length() != 1 || details.Length() != 1 {
		return models.Listing{}, false
	}

	id, ok := article.Attr("data-adid")
	if !ok || id == "" {
		return models.Listing{}, false
	}

	href, ok := main.Find("a").First().Attr("href")
	if !ok {
		return models.Listing{}, false
	}

	return models.Listing{
		ID:    id,
		Price: strings.TrimSpace(details.Find("strong").First().Text()),
		URL:   c.baseURL + href,
	}, true
}
