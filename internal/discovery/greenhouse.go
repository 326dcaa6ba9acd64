package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/job-agent/internal/fetch"
	"github.com/jonathan/job-agent/internal/types"
)

// Greenhouse searches company boards hosted on boards.greenhouse.io. It
// reads the Criteria.Companies list; Greenhouse has no global search.
type Greenhouse struct {
	opts *fetch.Options
	// FetchDescriptions makes the searcher follow each posting link and
	// extract the description text. Slower, but lets analysis run without
	// a second fetch pass.
	FetchDescriptions bool
	// UseBrowser falls back to headless rendering when a posting page
	// returns too little text over plain HTTP. Requires Chrome.
	UseBrowser bool
}

// NewGreenhouse creates a Greenhouse board searcher.
func NewGreenhouse(opts *fetch.Options) *Greenhouse {
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	return &Greenhouse{opts: opts}
}

// Search lists openings from each company's Greenhouse board, filtered by
// the criteria's term and location.
func (g *Greenhouse) Search(ctx context.Context, criteria Criteria) ([]types.RawJob, error) {
	var jobs []types.RawJob
	for _, company := range criteria.Companies {
		boardJobs, err := g.searchBoard(ctx, company, criteria)
		if err != nil {
			return nil, fmt.Errorf("failed to search greenhouse board for %s: %w", company, err)
		}
		jobs = append(jobs, boardJobs...)
		if criteria.ResultsWanted > 0 && len(jobs) >= criteria.ResultsWanted {
			jobs = jobs[:criteria.ResultsWanted]
			break
		}
	}
	return jobs, nil
}

func (g *Greenhouse) searchBoard(ctx context.Context, company string, criteria Criteria) ([]types.RawJob, error) {
	boardURL := fmt.Sprintf("https://boards.greenhouse.io/%s", boardSlug(company))
	return g.parseBoard(ctx, boardURL, company, criteria)
}

// parseBoard fetches a board page and extracts its openings.
func (g *Greenhouse) parseBoard(ctx context.Context, boardURL, company string, criteria Criteria) ([]types.RawJob, error) {
	result, err := fetch.URL(ctx, boardURL, g.opts)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse board HTML: %w", err)
	}

	base, err := url.Parse(boardURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board URL: %w", err)
	}

	now := time.Now().UTC()
	var jobs []types.RawJob
	doc.Find("div.opening").Each(func(_ int, opening *goquery.Selection) {
		link := opening.Find("a").First()
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		location := strings.TrimSpace(opening.Find("span.location").Text())

		if title == "" || href == "" {
			return
		}
		if !matchesCriteria(title, location, criteria) {
			return
		}

		jobURL := href
		if resolved, err := base.Parse(href); err == nil {
			jobURL = resolved.String()
		}

		jobs = append(jobs, types.RawJob{
			URL:      jobURL,
			Title:    title,
			Company:  company,
			Location: location,
			Remote:   strings.Contains(strings.ToLower(location), "remote"),
			Site:     types.PlatformGreenhouse,
			PostedAt: &now,
		})
	})

	if g.FetchDescriptions {
		for i := range jobs {
			description, err := g.fetchDescription(ctx, jobs[i].URL)
			if err != nil {
				// A single unreadable posting should not sink the search.
				continue
			}
			jobs[i].Description = description
		}
	}

	return jobs, nil
}

func (g *Greenhouse) fetchDescription(ctx context.Context, jobURL string) (string, error) {
	selectors := fetch.PlatformContentSelectors(fetch.PlatformGreenhouse)
	noise := fetch.PlatformNoiseSelectors(fetch.PlatformGreenhouse)

	result, err := fetch.URL(ctx, jobURL, g.opts)
	if err != nil {
		return "", err
	}
	text, err := fetch.ExtractMainText(result.HTML, selectors, noise...)
	if err != nil {
		return "", err
	}

	// JS-rendered boards serve nearly empty HTML; retry with a browser.
	if g.UseBrowser && fetch.ShouldUseBrowser(text) {
		html, err := fetch.WithBrowser(ctx, jobURL, g.opts.Timeout, false)
		if err != nil {
			return text, nil
		}
		if rendered, err := fetch.ExtractMainText(html, selectors, noise...); err == nil && len(rendered) > len(text) {
			return rendered, nil
		}
	}
	return text, nil
}

// matchesCriteria filters an opening by search term and location.
func matchesCriteria(title, location string, criteria Criteria) bool {
	if criteria.Term != "" {
		matched := false
		for _, word := range strings.Fields(strings.ToLower(criteria.Term)) {
			if strings.Contains(strings.ToLower(title), word) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if criteria.Remote && !strings.Contains(strings.ToLower(location), "remote") {
		return false
	}
	if criteria.Location != "" && !criteria.Remote {
		if !strings.Contains(strings.ToLower(location), strings.ToLower(criteria.Location)) {
			return false
		}
	}
	return true
}

// boardSlug converts a company name to its likely Greenhouse board slug.
func boardSlug(company string) string {
	slug := strings.ToLower(strings.TrimSpace(company))
	slug = strings.ReplaceAll(slug, " ", "")
	return slug
}
