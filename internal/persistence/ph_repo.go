package persistence

import (
	"context"
	"encoding/json"
	"net/http"
)

const defaultCaptureUrl = "https://eu.posthog.com/capture/"

// PHRepo captures workflow events in PostHog. Without an api key every
// capture is a no-op.
type PHRepo struct {
	Client *http.Client
	Url    string
	ApiKey string
}

type phEvent struct {
	ApiKey     string            `json:"api_key"`
	Event      string            `json:"event"`
	Properties map[string]string `json:"properties"`
}

func (r PHRepo) Capture(ctx context.Context, eventType string, distinctId string, props map[string]string) error {
	if r.ApiKey == "" {
		return nil
	}

	properties := make(map[string]string, len(props)+1)
	for k, v := range props {
		properties[k] = v
	}
	properties["distinct_id"] = distinctId

	body, err := json.Marshal(phEvent{ApiKey: r.ApiKey, Event: eventType, Properties: properties})

	if err != nil {
		return err
	}

	url := r.Url
	if url == "" {
		url = defaultCaptureUrl
	}

	_, err = request[struct{}](ctx, r.Client, reqConfig{
		Method:  http.MethodPost,
		Url:     url,
		Headers: []string{"Content-Type:application/json"},
		Body:    body},
		200)

	if err != nil {
		return err
	}

	return nil
}
