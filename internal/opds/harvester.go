package opds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly"

	"audiotoc/config"
)

const acceptHeader = "application/opds+json, application/json;q=0.9, */*;q=0.1"

// Harvester walks an OPDS 2.0 catalog and collects its publications,
// following rel=next links until the last page. When pointed at an HTML
// landing page instead of a feed, it looks for an advertised OPDS feed
// link and follows that.
type Harvester struct {
	userAgent string

	// Limit caps the number of collected publications. Zero means no cap.
	Limit int

	// AudiobooksOnly drops entries that are not audiobooks.
	AudiobooksOnly bool
}

func NewHarvester(cfg *config.Config) *Harvester {
	return &Harvester{userAgent: cfg.Fetch.UserAgent}
}

// Harvest fetches every page of the catalog at feedURL and returns the
// publications in feed order.
func (h *Harvester) Harvest(ctx context.Context, feedURL string) ([]Publication, error) {
	var (
		publications []Publication
		pages        int
		harvestErr   error
	)

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.Async(false),
		colly.IgnoreRobotsTxt(),
	)
	c.SetRequestTimeout(30 * time.Second)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", h.userAgent)
		r.Headers.Set("Accept", acceptHeader)
	})

	c.OnError(func(r *colly.Response, err error) {
		harvestErr = fmt.Errorf("fetch %s: %w", r.Request.URL, err)
	})

	c.OnResponse(func(r *colly.Response) {
		contentType := strings.ToLower(r.Headers.Get("Content-Type"))
		if !strings.Contains(contentType, "json") {
			return
		}

		var feed Feed
		if err := json.Unmarshal(r.Body, &feed); err != nil {
			harvestErr = fmt.Errorf("decode feed %s: %w", r.Request.URL, err)
			return
		}
		pages++

		for _, publication := range feed.Publications {
			if h.AudiobooksOnly && !publication.IsAudiobook() {
				continue
			}
			absolutizeLinks(r.Request.URL, publication.Links)
			absolutizeLinks(r.Request.URL, publication.Images)
			publications = append(publications, publication)
			if h.Limit > 0 && len(publications) >= h.Limit {
				slog.Debug("Harvest limit reached", "limit", h.Limit)
				return
			}
		}

		next := feed.NextPageURL()
		if next == "" {
			return
		}
		if ctx.Err() != nil {
			harvestErr = ctx.Err()
			return
		}
		slog.Debug("Following next page", "url", next)
		if err := r.Request.Visit(next); err != nil {
			harvestErr = fmt.Errorf("visit next page %s: %w", next, err)
		}
	})

	// Landing pages advertise their catalog with a typed link element.
	c.OnHTML(fmt.Sprintf("link[type='%s']", FeedType), func(e *colly.HTMLElement) {
		href := e.Attr("href")
		if href == "" {
			return
		}
		slog.Debug("Discovered feed link", "url", href)
		if err := e.Request.Visit(href); err != nil {
			harvestErr = fmt.Errorf("visit discovered feed %s: %w", href, err)
		}
	})

	err := c.Visit(feedURL)
	if err != nil {
		for i := 0; i < 3; i++ {
			time.Sleep(2 * time.Second)
			if err = c.Visit(feedURL); err == nil {
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed after retry: %w", err)
		}
	}

	if harvestErr != nil {
		return nil, harvestErr
	}
	if pages == 0 {
		return nil, fmt.Errorf("no OPDS feed found at %s", feedURL)
	}

	slog.Info("Harvest complete", "pages", pages, "publications", len(publications))
	return publications, nil
}

// absolutizeLinks resolves relative hrefs against the feed page URL so that
// collected publications can be fetched without the page context.
func absolutizeLinks(base *url.URL, links []Link) {
	for i, link := range links {
		if link.Href == "" {
			continue
		}
		ref, err := url.Parse(link.Href)
		if err != nil {
			continue
		}
		links[i].Href = base.ResolveReference(ref).String()
	}
}
