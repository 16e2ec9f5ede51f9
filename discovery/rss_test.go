package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rbitracker/types"
)

const notificationFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>RBI Notifications</title>
<item>
  <title>Master Direction on KYC</title>
  <link>https://www.rbi.org.in/Scripts/BS_CircularIndexDisplay.aspx?Id=1</link>
  <pubDate>Thu, 13 Feb 2025 10:30:00 +0530</pubDate>
</item>
<item>
  <title>Press Note Without Attachment</title>
  <link>https://www.rbi.org.in/Scripts/BS_CircularIndexDisplay.aspx?Id=3</link>
  <pubDate>Thu, 13 Feb 2025 15:00:00 +0530</pubDate>
</item>
<item>
  <title>Older Circular</title>
  <link>https://www.rbi.org.in/Scripts/BS_CircularIndexDisplay.aspx?Id=4</link>
  <pubDate>Wed, 12 Feb 2025 11:00:00 +0530</pubDate>
</item>
</channel>
</rss>`

func TestDiscoverFeedMatchesPublishedDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, notificationFeed)
	}))
	defer server.Close()

	date := time.Date(2025, time.February, 13, 0, 0, 0, 0, time.UTC)
	descriptors, err := DiscoverFeed(context.Background(), server.URL, date)
	if err != nil {
		t.Fatalf("DiscoverFeed returned error: %v", err)
	}

	if len(descriptors) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(descriptors))
	}
	if descriptors[0].Name != "Master Direction on KYC" {
		t.Errorf("descriptor[0].Name = %q", descriptors[0].Name)
	}
	for i, desc := range descriptors {
		if desc.DocumentURL != "" {
			t.Errorf("descriptor[%d].DocumentURL = %q, want empty for feed items", i, desc.DocumentURL)
		}
		if desc.CircularDate != "13 Feb, 2025" {
			t.Errorf("descriptor[%d].CircularDate = %q", i, desc.CircularDate)
		}
	}
}

func TestDiscoverFeedNoItemsForDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, notificationFeed)
	}))
	defer server.Close()

	date := time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC)
	_, err := DiscoverFeed(context.Background(), server.URL, date)
	if !errors.Is(err, types.ErrNoResultsForDate) {
		t.Fatalf("DiscoverFeed error = %v, want ErrNoResultsForDate", err)
	}
}

func TestFeedDiscovererMatchesDiscovererContract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, notificationFeed)
	}))
	defer server.Close()

	d := NewFeedDiscoverer(server.URL)
	date := time.Date(2025, time.February, 13, 0, 0, 0, 0, time.UTC)

	descriptors, err := d.Discover(context.Background(), date)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(descriptors))
	}

	_, err = d.Discover(context.Background(), time.Date(2025, time.February, 20, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, types.ErrNoResultsForDate) {
		t.Fatalf("Discover for empty date = %v, want ErrNoResultsForDate", err)
	}
}

func TestDiscoverFeedUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := DiscoverFeed(context.Background(), server.URL, time.Now())
	if !errors.Is(err, types.ErrSourceUnavailable) {
		t.Fatalf("DiscoverFeed error = %v, want ErrSourceUnavailable", err)
	}
}
