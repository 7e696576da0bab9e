package client

import (
	"context"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

type methodKey struct{}

// idempotentRetryPolicy retries transport failures and 5xx/429 responses,
// but only for GET and HEAD.  A replayed POST could create a second center
// or burn a verification code.
func idempotentRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	switch m, _ := ctx.Value(methodKey{}).(string); m {
	case http.MethodGet, http.MethodHead:
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	default:
		return false, ctx.Err()
	}
}

// leveledLogger feeds retryablehttp's logs into zap.
type leveledLogger struct{ s *zap.SugaredLogger }

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }

var _ retryablehttp.LeveledLogger = leveledLogger{}
