package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/openchatops/oco/internal/callback"
	"github.com/openchatops/oco/internal/chat"
	"github.com/openchatops/oco/internal/errs"
	"github.com/openchatops/oco/internal/stream"
)

const (
	maxLinks      = 3
	maxPageBytes  = 2 << 20
	maxExcerptLen = 200
	linkUserAgent = "Mozilla/5.0 (compatible; oco-linkbot/1.0)"
)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"]+`)

// LinkPreview replies with the title and excerpt of each page linked in a
// message. Pages are fetched lazily: one per reply pulled.
type LinkPreview struct {
	client *http.Client
}

func NewLinkPreview(client *http.Client) *LinkPreview {
	if client == nil {
		client = http.DefaultClient
	}
	return &LinkPreview{client: client}
}

func (l *LinkPreview) HandleMessage(ctx context.Context, robot callback.Robot, msg chat.IncomingMessage) (callback.Replies, error) {
	links := uniqueLinks(msg.Body())
	if len(links) == 0 {
		return callback.NoReply(), nil
	}

	i := 0
	next := func(ctx context.Context) (chat.OutgoingMessage, error) {
		for i < len(links) {
			link := links[i]
			i++
			title, excerpt, err := l.fetch(ctx, link)
			if err != nil {
				robot.Logger().Debug("link preview failed", "url", link, "err", err)
				continue
			}
			return chat.Reply(msg, formatPreview(title, excerpt, link)), nil
		}
		return chat.OutgoingMessage{}, io.EOF
	}
	return stream.Func(next, nil), nil
}

func (l *LinkPreview) fetch(ctx context.Context, rawURL string) (title, excerpt string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", linkUserAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return "", "", errs.IO("get "+rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", errs.Genericf("get %s: status %d", rawURL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", "", errs.Genericf("get %s: not a page (%s)", rawURL, ct)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxPageBytes), u)
	if err != nil {
		return "", "", fmt.Errorf("parse %s: %w", rawURL, err)
	}
	if article.Title == "" {
		return "", "", errs.Genericf("%s has no title", rawURL)
	}
	return article.Title, article.Excerpt, nil
}

func formatPreview(title, excerpt, link string) string {
	excerpt = strings.Join(strings.Fields(excerpt), " ")
	if len(excerpt) > maxExcerptLen {
		excerpt = excerpt[:maxExcerptLen] + "..."
	}
	if excerpt == "" {
		return fmt.Sprintf("%s (%s)", title, link)
	}
	return fmt.Sprintf("%s: %s (%s)", title, excerpt, link)
}

func uniqueLinks(body string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range urlPattern.FindAllString(body, -1) {
		m = strings.TrimRight(m, ".,;:!?)")
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
		if len(out) == maxLinks {
			break
		}
	}
	return out
}
