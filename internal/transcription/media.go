package transcription

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

const defaultMaxMediaBytes = 16 << 20

// MediaDownloader fetches Twilio-hosted media with account credentials.
type MediaDownloader struct {
	accountSID string
	authToken  string
	maxBytes   int64
	httpClient *http.Client
}

// NewMediaDownloader builds a downloader. Credentials may be empty for
// publicly reachable media.
func NewMediaDownloader(accountSID, authToken string, maxBytes int, httpClient *http.Client) *MediaDownloader {
	if maxBytes <= 0 {
		maxBytes = defaultMaxMediaBytes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &MediaDownloader{
		accountSID: accountSID,
		authToken:  authToken,
		maxBytes:   int64(maxBytes),
		httpClient: httpClient,
	}
}

// Download retrieves the media payload.
func (d *MediaDownloader) Download(ctx context.Context, mediaURL, contentType string) (Audio, error) {
	mediaURL = strings.TrimSuffix(strings.TrimSpace(mediaURL), ".json")
	if mediaURL == "" {
		return Audio{}, errors.New("media url required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return Audio{}, fmt.Errorf("build media request: %w", err)
	}
	if d.accountSID != "" && d.authToken != "" {
		req.SetBasicAuth(d.accountSID, d.authToken)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return Audio{}, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Audio{}, fmt.Errorf("fetch media: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return Audio{}, fmt.Errorf("read media: %w", err)
	}
	if int64(len(data)) > d.maxBytes {
		return Audio{}, fmt.Errorf("media exceeds %d bytes", d.maxBytes)
	}
	if len(data) == 0 {
		return Audio{}, errors.New("media body empty")
	}

	return Audio{Data: data, MIMEType: resolveMIMEType(contentType, resp.Header.Get("Content-Type"))}, nil
}

// resolveMIMEType prefers the webhook's declared type, then the response
// header, then WhatsApp's usual ogg/opus voice note format.
func resolveMIMEType(declared, header string) string {
	for _, candidate := range []string{declared, header} {
		if candidate == "" {
			continue
		}
		if mt, _, err := mime.ParseMediaType(candidate); err == nil && strings.HasPrefix(mt, "audio/") {
			return mt
		}
	}
	return "audio/ogg"
}
