package discovery

import (
	"context"
	"fmt"
	"time"

	"rbitracker/types"

	"github.com/mmcdole/gofeed"
)

// DefaultFeedURL is the RBI notifications RSS feed.
const DefaultFeedURL = "https://rbi.org.in/notifications_rss.xml"

// FeedDiscoverer discovers circulars from the notification feed instead
// of the form protocol. It satisfies the same contract as Discoverer,
// so the pipeline can run on either source.
type FeedDiscoverer struct {
	feedURL string
}

// NewFeedDiscoverer builds a FeedDiscoverer against feedURL. An empty
// feedURL selects the production feed.
func NewFeedDiscoverer(feedURL string) *FeedDiscoverer {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &FeedDiscoverer{feedURL: feedURL}
}

// Discover returns descriptors for feed items published on date.
func (d *FeedDiscoverer) Discover(ctx context.Context, date time.Time) ([]types.CircularDescriptor, error) {
	return DiscoverFeed(ctx, d.feedURL, date)
}

// DiscoverFeed maps items of the site's notification feed published on
// date to circular descriptors. It is an alternate discovery path for
// when the form protocol is unavailable; feed items carry no separate
// document link, so DocumentURL is always empty and the fetch stage
// falls back to the notification page.
func DiscoverFeed(ctx context.Context, feedURL string, date time.Time) ([]types.CircularDescriptor, error) {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch notification feed: %v", types.ErrSourceUnavailable, err)
	}

	target := date.Format(dateHeaderLayout)
	year, month, day := date.Date()

	var descriptors []types.CircularDescriptor
	dateSeen := false
	for _, item := range feed.Items {
		published := item.PublishedParsed
		if published == nil {
			published = item.UpdatedParsed
		}
		if published == nil {
			continue
		}
		y, m, d := published.Date()
		if y != year || m != month || d != day {
			continue
		}
		dateSeen = true
		if item.Link == "" {
			continue
		}
		descriptors = append(descriptors, types.CircularDescriptor{
			Name:            item.Title,
			NotificationURL: item.Link,
			CircularDate:    target,
		})
	}

	if !dateSeen {
		return nil, fmt.Errorf("%w: feed has no items for %s", types.ErrNoResultsForDate, target)
	}
	return descriptors, nil
}
