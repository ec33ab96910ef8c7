// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when a download exceeds its size cap.
var ErrTooLarge = errors.New("download exceeds size limit")

// defaultName is used when neither the response nor the URL names the file.
const defaultName = "document.pdf"

// Download fetches rawURL into dir and returns the written path. The file
// name comes from Content-Disposition, then the URL path, and gains a .pdf
// extension when the server labels the body application/pdf. Bodies larger
// than maxBytes (when > 0) are rejected and nothing is left on disk.
func Download(ctx context.Context, client *http.Client, rawURL, dir string, maxBytes int64) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("invalid download URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	resp, err := DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", rawURL, resp.StatusCode)
	}
	if maxBytes > 0 && resp.ContentLength > maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, resp.ContentLength, maxBytes)
	}

	dst := filepath.Join(dir, fileName(resp.Header.Get("Content-Disposition"), resp.Header.Get("Content-Type"), u))
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && maxBytes > 0 && n > maxBytes {
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, maxBytes)
	}
	if err != nil {
		os.Remove(dst)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("writing %s: %w", dst, err)
	}
	return dst, nil
}

// fileName picks a safe base name for a downloaded file.
func fileName(disposition, contentType string, u *url.URL) string {
	name := defaultName
	if n := dispositionName(disposition); n != "" {
		name = n
	} else if n := clean(path.Base(u.Path)); n != "" {
		name = n
	}
	if isPDF(contentType) && !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func dispositionName(disposition string) string {
	if disposition == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return ""
	}
	return clean(params["filename"])
}

func isPDF(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/pdf"
}

func clean(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	switch name {
	case ".", "/", "..":
		return ""
	}
	return name
}
