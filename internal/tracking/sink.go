package tracking

import (
	"context"
	"time"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/pkg/httpclient"
)

// HTTPSink posts events as JSON to the analytics endpoint.
type HTTPSink struct {
	cfg config.Tracking
}

// NewHTTPSink builds a sink from tracking configuration.
func NewHTTPSink(cfg config.Tracking) *HTTPSink {
	return &HTTPSink{cfg: cfg}
}

func (s *HTTPSink) Track(ctx context.Context, event Event) error {
	resp, err := httpclient.Post(s.cfg.Endpoint).
		WithContext(ctx).
		Header("Authorization", "Bearer "+s.cfg.APIKey).
		Body(event).
		Timeout(10 * time.Second).
		Retry(2, 500*time.Millisecond).
		Send()
	if err != nil {
		return err
	}
	return resp.Throw()
}

// NoopSink discards every event. Used when tracking is disabled and in
// tests.
type NoopSink struct{}

func (NoopSink) Track(context.Context, Event) error { return nil }
