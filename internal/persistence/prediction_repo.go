package persistence

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/felixbrock/dockflow/internal/app"
)

const DefaultLookupUrl = "https://alphafold.ebi.ac.uk/api/prediction/%s"

// PredictionRepo looks up predicted structures for a sequence identifier.
// LookupUrl is a template with a single %s for the escaped identifier.
type PredictionRepo struct {
	Client    *http.Client
	LookupUrl string
	Limiter   *rate.Limiter
}

func (r PredictionRepo) Lookup(ctx context.Context, sequenceId string) ([]app.PredictionEntry, error) {
	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("lookup throttled: %w", context.DeadlineExceeded)
		}
	}

	lookupUrl := r.LookupUrl
	if lookupUrl == "" {
		lookupUrl = DefaultLookupUrl
	}

	entries, err := request[[]app.PredictionEntry](ctx, r.Client, reqConfig{
		Method:  http.MethodGet,
		Url:     fmt.Sprintf(lookupUrl, url.PathEscape(sequenceId)),
		Headers: []string{"Accept:application/json"}},
		0)

	if err != nil {
		return nil, err
	}

	if entries == nil {
		return nil, nil
	}

	return *entries, nil
}
