package persistence

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixbrock/dockflow/internal/app"
)

type reqConfig struct {
	Method  string
	Url     string
	Headers []string
	Body    []byte
}

func request[T any](ctx context.Context, client *http.Client, config reqConfig, expectedResCode int) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, config.Method, config.Url, bytes.NewBuffer(config.Body))

	if err != nil {
		return nil, err
	}

	for i := 0; i < len(config.Headers); i++ {
		key, value, ok := strings.Cut(config.Headers[i], ":")
		if !ok {
			continue
		}
		req.Header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)

	if err != nil {
		return nil, err
	}

	body, err := app.Read(resp.Body)

	if err != nil {
		return nil, err
	}

	if !statusOk(resp.StatusCode, expectedResCode) {
		return nil, &app.StatusError{Code: resp.StatusCode, Url: redact(config.Url)}
	}

	var t *T
	t, err = app.ReadJSON[T](body)

	if err != nil {
		return nil, err
	}

	return t, nil
}

// statusOk compares against the expected code; 0 accepts any 2xx.
func statusOk(got int, expected int) bool {
	if expected == 0 {
		return got >= 200 && got < 300
	}
	return got == expected
}

// redact drops the query string so api keys passed as params never reach logs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	return u.String()
}
