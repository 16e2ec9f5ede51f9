// Package document turns a circular descriptor into extractable text.
// Circulars with a document link are downloaded and read as PDFs; rows
// without one fall back to the notification page itself.
package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"rbitracker/types"

	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
)

// Fetcher downloads circular documents and extracts their text.
type Fetcher struct {
	client *http.Client
	dir    string
}

// NewFetcher builds a Fetcher that keeps downloaded copies under dir.
func NewFetcher(dir string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
	}
}

// Fetch produces a CircularDocument for desc. The returned
// SourceDocumentRef is the local path of the downloaded copy, which
// remains on disk; callers must not assume it is the original URL.
// Fails with types.ErrDownloadFailed on transport problems and
// types.ErrUnreadableDocument when no text can be extracted.
func (f *Fetcher) Fetch(ctx context.Context, desc types.CircularDescriptor) (*types.CircularDocument, error) {
	if desc.DocumentURL == "" {
		return f.fetchNotificationPage(ctx, desc)
	}

	localPath, err := f.download(ctx, desc.DocumentURL)
	if err != nil {
		return nil, err
	}

	text, err := extractPDFText(localPath)
	if err != nil {
		return nil, err
	}

	return &types.CircularDocument{
		CircularDescriptor: desc,
		RawText:            text,
		SourceDocumentRef:  localPath,
	}, nil
}

// download streams the document to a local file named after the last
// URL path segment, matching the identity used as the storage key.
func (f *Fetcher) download(ctx context.Context, docURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request for %s: %v", types.ErrDownloadFailed, docURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", types.ErrDownloadFailed, docURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned HTTP %d", types.ErrDownloadFailed, docURL, resp.StatusCode)
	}

	localPath := filepath.Join(f.dir, localFileName(docURL, ".pdf"))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: create %s: %v", types.ErrDownloadFailed, localPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("%w: stream %s: %v", types.ErrDownloadFailed, docURL, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %v", types.ErrDownloadFailed, localPath, err)
	}
	return localPath, nil
}

// extractPDFText concatenates per-page text in page order. The file
// handle is held only for the duration of extraction.
func extractPDFText(localPath string) (string, error) {
	file, reader, err := pdf.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", types.ErrUnreadableDocument, localPath, err)
	}
	defer file.Close()

	total := reader.NumPage()
	if total == 0 {
		return "", fmt.Errorf("%w: %s has no pages", types.ErrUnreadableDocument, localPath)
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= total; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d of %s: %v", types.ErrUnreadableDocument, pageNum, localPath, err)
		}
		sb.WriteString(text)
	}

	full := sb.String()
	if strings.TrimSpace(full) == "" {
		return "", fmt.Errorf("%w: %s yielded no text", types.ErrUnreadableDocument, localPath)
	}
	return full, nil
}

// fetchNotificationPage extracts the main text of the notification page
// for descriptors without a document link, and writes it to a local
// text file so the record still has a storage identity. The page is
// fetched with the run context so cancellation is observed.
func (f *Fetcher) fetchNotificationPage(ctx context.Context, desc types.CircularDescriptor) (*types.CircularDocument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.NotificationURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", types.ErrDownloadFailed, desc.NotificationURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", types.ErrDownloadFailed, desc.NotificationURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned HTTP %d", types.ErrDownloadFailed, desc.NotificationURL, resp.StatusCode)
	}

	pageURL, err := url.Parse(desc.NotificationURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad notification URL %s: %v", types.ErrDownloadFailed, desc.NotificationURL, err)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: read notification page %s: %v", types.ErrUnreadableDocument, desc.NotificationURL, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return nil, fmt.Errorf("%w: notification page %s yielded no text", types.ErrUnreadableDocument, desc.NotificationURL)
	}

	localPath := filepath.Join(f.dir, localFileName(desc.NotificationURL, ".txt"))
	if err := os.WriteFile(localPath, []byte(text), 0o644); err != nil {
		return nil, fmt.Errorf("%w: write %s: %v", types.ErrDownloadFailed, localPath, err)
	}

	return &types.CircularDocument{
		CircularDescriptor: desc,
		RawText:            text,
		SourceDocumentRef:  localPath,
	}, nil
}

// localFileName derives a file name from the last URL path segment,
// prefixed with a short digest of the full URL so distinct documents
// sharing a basename never collide on one storage key.
func localFileName(rawURL, fallbackExt string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "circular"
	}
	if path.Ext(name) == "" {
		name += fallbackExt
	}
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:4]) + "_" + name
}
