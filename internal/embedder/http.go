package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds the body read from an embeddings endpoint. A batch
// of 100 chunks at 1536 dims is well under 4 MiB of JSON.
const maxResponseBytes = 64 << 20

// postJSON sends in as a JSON POST to url and decodes the reply into out.
// A non-2xx reply is not an error here: out is still decoded on a best-effort
// basis so callers can surface the provider's own error message, and the
// status code is returned for them to judge.
func postJSON(ctx context.Context, client *http.Client, url string, header http.Header, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	decodeErr := json.Unmarshal(body, out)
	if ok(resp.StatusCode) && decodeErr != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", decodeErr)
	}
	return resp.StatusCode, nil
}

func ok(status int) bool { return status >= 200 && status < 300 }
