package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// ProductInfo is what the announcement needs from the product page.
type ProductInfo struct {
	Description string
	Website     string
}

// Product scrapes the tracker's browse page for module. The description is
// the first italic paragraph; the web site is the first link labelled with
// WebsiteLabel, either in its own text or its parent's.
func (c *Client) Product(ctx context.Context, module string) (ProductInfo, error) {
	var (
		info    ProductInfo
		descSet bool
		siteSet bool
	)

	collector := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(c.UserAgent),
	)
	// colly defaults to a 10s timeout; follow the client's instead.
	var timeout time.Duration
	if c.HTTPClient != nil {
		timeout = c.HTTPClient.Timeout
	}
	collector.SetRequestTimeout(timeout)

	collector.OnHTML("p > i", func(e *colly.HTMLElement) {
		if descSet {
			return
		}
		info.Description = strings.TrimSpace(e.Text)
		descSet = true
	})

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if siteSet || c.WebsiteLabel == "" {
			return
		}
		if !strings.Contains(e.Text, c.WebsiteLabel) && !strings.Contains(e.DOM.Parent().Text(), c.WebsiteLabel) {
			return
		}
		info.Website = e.Attr("href")
		siteSet = true
	})

	var visitErr error
	collector.OnError(func(r *colly.Response, err error) {
		visitErr = fmt.Errorf("product page %s returned status %d: %w", r.Request.URL, r.StatusCode, err)
	})

	pageURL := c.ProductURL(module)
	logDebug("[tracker] scraping product page %s", pageURL)

	if err := collector.Visit(pageURL); err != nil {
		if visitErr != nil {
			return ProductInfo{}, visitErr
		}
		return ProductInfo{}, fmt.Errorf("visiting product page: %w", err)
	}
	collector.Wait()

	if visitErr != nil {
		return ProductInfo{}, visitErr
	}
	return info, nil
}
