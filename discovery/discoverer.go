// Package discovery finds circulars published on the RBI notification
// listing for a given date. The listing is a legacy ASP.NET form: a GET
// yields per-session anti-forgery tokens as hidden fields, a POST with
// those tokens plus year/month filters yields an HTML table whose rows
// are grouped under date headers. The whole protocol is hidden behind
// Discover so nothing else depends on token lifetimes.
package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rbitracker/types"

	"github.com/PuerkitoBio/goquery"
)

// DefaultListingURL is the RBI notification listing endpoint.
const DefaultListingURL = "https://www.rbi.org.in/Scripts/NotificationUser.aspx"

// dateHeaderLayout matches the date header text used by the listing,
// e.g. "13 Feb, 2025".
const dateHeaderLayout = "2 Jan, 2006"

// Hidden form fields the host requires on every filtered POST.
var tokenFields = []string{"__VIEWSTATE", "__EVENTVALIDATION", "__VIEWSTATEGENERATOR"}

// Discoverer queries the listing for circular descriptors.
type Discoverer struct {
	listingURL string
	client     *http.Client
}

// NewDiscoverer builds a Discoverer against listingURL. An empty
// listingURL selects the production endpoint. The client keeps a cookie
// jar because the host ties the form tokens to a session.
func NewDiscoverer(listingURL string, timeout time.Duration) *Discoverer {
	if listingURL == "" {
		listingURL = DefaultListingURL
	}
	jar, _ := cookiejar.New(nil)
	return &Discoverer{
		listingURL: listingURL,
		client: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
	}
}

// Discover returns the descriptors listed under date's header row, in
// table order. It fails with types.ErrSourceUnavailable when the page
// or its tokens cannot be obtained, and types.ErrNoResultsForDate when
// the listing has no header row for the date at all.
func (d *Discoverer) Discover(ctx context.Context, date time.Time) ([]types.CircularDescriptor, error) {
	tokens, err := d.fetchFormTokens(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := d.submitFilter(ctx, tokens, date)
	if err != nil {
		return nil, err
	}

	return d.parseListing(doc, date)
}

// fetchFormTokens GETs the listing page and extracts the hidden
// anti-forgery fields. A missing field is a contract break with the
// host, not an empty result.
func (d *Discoverer) fetchFormTokens(ctx context.Context) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.listingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build listing request: %v", types.ErrSourceUnavailable, err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch listing page: %v", types.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: listing page returned HTTP %d", types.ErrSourceUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing page: %v", types.ErrSourceUnavailable, err)
	}

	tokens := url.Values{}
	for _, field := range tokenFields {
		value, ok := doc.Find(fmt.Sprintf("input[name=%q]", field)).Attr("value")
		if !ok {
			return nil, fmt.Errorf("%w: hidden field %s absent from listing page", types.ErrSourceUnavailable, field)
		}
		tokens.Set(field, value)
	}
	return tokens, nil
}

// submitFilter POSTs the tokens plus the year/month filter and parses
// the response HTML.
func (d *Discoverer) submitFilter(ctx context.Context, tokens url.Values, date time.Time) (*goquery.Document, error) {
	form := url.Values{}
	for k, vs := range tokens {
		form[k] = vs
	}
	form.Set("hdnYear", strconv.Itoa(date.Year()))
	form.Set("hdnMonth", strconv.Itoa(int(date.Month())))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.listingURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: build filter request: %v", types.ErrSourceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: submit date filter: %v", types.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: filter POST returned HTTP %d", types.ErrSourceUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse filtered listing: %v", types.ErrSourceUnavailable, err)
	}
	return doc, nil
}

// parseListing walks the #pnlDetails table. Rows alternate between date
// header rows (td.tableheader) and data rows; only rows under the
// header matching the target date are kept, in document order.
func (d *Discoverer) parseListing(doc *goquery.Document, date time.Time) ([]types.CircularDescriptor, error) {
	content := doc.Find("#pnlDetails")
	if content.Length() == 0 {
		return nil, fmt.Errorf("%w: listing content area missing", types.ErrSourceUnavailable)
	}

	base, err := url.Parse(d.listingURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad listing URL: %v", types.ErrSourceUnavailable, err)
	}

	target := date.Format(dateHeaderLayout)
	headerFound := false
	inTarget := false
	var descriptors []types.CircularDescriptor

	content.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if header := row.Find("td.tableheader"); header.Length() > 0 {
			inTarget = strings.TrimSpace(header.Text()) == target
			if inTarget {
				headerFound = true
			}
			return
		}
		if !inTarget {
			return
		}

		link := row.Find("a.link2").First()
		if link.Length() == 0 {
			return
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		desc := types.CircularDescriptor{
			Name:            strings.TrimSpace(link.Text()),
			NotificationURL: resolveURL(base, href),
			CircularDate:    target,
		}

		// A second link on the row, when present, is the document.
		anchors := row.Find("a[href]")
		if anchors.Length() > 1 {
			if docHref, ok := anchors.Eq(1).Attr("href"); ok {
				desc.DocumentURL = resolveURL(base, docHref)
			}
		}

		descriptors = append(descriptors, desc)
	})

	if !headerFound {
		return nil, fmt.Errorf("%w: no header row for %s", types.ErrNoResultsForDate, target)
	}
	return descriptors, nil
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
