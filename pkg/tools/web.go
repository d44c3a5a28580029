package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/lobo-cli/lobo/pkg/permission"
	"github.com/lobo-cli/lobo/pkg/registry"
)

const duckDuckGoHTMLURL = "https://html.duckduckgo.com/html/"

func webTools(opts Options) []registry.Spec {
	return []registry.Spec{
		{
			Name:        "search_web",
			Description: "Search the web using DuckDuckGo and return up to N results with titles, URLs, and snippets.",
			Tier:        permission.RiskSafe,
			Category:    registry.CategoryWeb,
			Parameters: objectSchema(map[string]interface{}{
				"query":       stringProp("The search query text"),
				"max_results": intProp("Maximum number of results to return (default: 10, min: 1, max: 50)"),
			}, "query"),
			Handler: searchWebHandler(opts.HTTPClient, duckDuckGoHTMLURL),
		},
	}
}

func searchWebHandler(client *http.Client, endpoint string) registry.Handler {
	return func(ctx context.Context, args map[string]interface{}) (*registry.HandlerResult, error) {
		query := strings.TrimSpace(stringArg(args, "query"))
		if query == "" {
			return nil, fmt.Errorf("query cannot be empty")
		}

		maxResults := intArg(args, "max_results", 10)
		if maxResults < 1 {
			maxResults = 1
		}
		if maxResults > 50 {
			maxResults = 50
		}

		results, err := searchDuckDuckGo(ctx, client, endpoint, query, maxResults)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}

		payload := map[string]interface{}{
			"query":   query,
			"results": results,
			"count":   len(results),
		}

		return &registry.HandlerResult{
			Payload: payload,
			Summary: fmt.Sprintf("Found %d results for %q", len(results), query),
		}, nil
	}
}

func searchDuckDuckGo(ctx context.Context, client *http.Client, endpoint, query string, maxResults int) ([]map[string]interface{}, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; lobo-cli)")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := []map[string]interface{}{}
	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		link := s.Find("a.result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}

		results = append(results, map[string]interface{}{
			"title":   title,
			"url":     resolveResultURL(href),
			"snippet": snippet,
		})
		return len(results) < maxResults
	})

	log.Debug().Str("query", query).Int("count", len(results)).Msg("Web search completed")
	return results, nil
}

// resolveResultURL unwraps DuckDuckGo's redirect links, which carry the real
// target in a uddg query parameter.
func resolveResultURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	if parsed.Scheme == "" {
		return "https:" + href
	}
	return href
}
