package audit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// DefaultAxeSource is the engine build used when none is configured.
const DefaultAxeSource = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"

// maxScriptSize bounds a downloaded engine build.
const maxScriptSize = 16 << 20

// scriptFetchTimeout bounds the download of a remote engine build.
const scriptFetchTimeout = 30 * time.Second

// LoadScript returns the engine source from a local file or an http(s) URL.
//
// The source is loaded once per run and injected inline into every page, so
// pages with a strict Content-Security-Policy can still be audited.
func LoadScript(ctx context.Context, source string) (string, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", ErrEmptyScript
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetchScript(ctx, source)
	} else {
		data, err = os.ReadFile(source) //nolint:gosec // Path comes from the user's own flag or config.
	}
	if err != nil {
		return "", fmt.Errorf("failed to load axe script from %s: %w", source, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyScript, source)
	}
	return string(data), nil
}

func fetchScript(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, scriptFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxScriptSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxScriptSize {
		return nil, fmt.Errorf("script exceeds %d bytes", maxScriptSize)
	}
	return data, nil
}
