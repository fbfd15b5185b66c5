package redis

import (
	"context"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	apperrors "nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/features/nonprofit/models"
	"nonprofit-ads-analysis/internal/features/nonprofit/repository"
)

// StreamAdder is the part of the go-redis client the publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
}

type streamPublisher struct {
	client StreamAdder
	stream string
	maxLen int64
}

// NewStreamPublisher appends classifications to a Redis stream, trimming it
// to roughly maxLen entries (0 disables trimming).
func NewStreamPublisher(client StreamAdder, stream string, maxLen int64) repository.ValidationPublisher {
	return &streamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *streamPublisher) PublishValidation(ctx context.Context, runID string, v models.Validation) error {
	args := &goredis.XAddArgs{
		Stream: p.stream,
		Values: ValidationFields(runID, v),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return apperrors.NewStreamError("xadd "+p.stream, err).WithDetail("ein", v.EIN)
	}
	return nil
}

// ValidationFields flattens a classification into stream entry fields.
func ValidationFields(runID string, v models.Validation) map[string]interface{} {
	fields := map[string]interface{}{
		"run_id":       runID,
		"ein":          v.EIN,
		"valid":        strconv.FormatBool(v.Valid),
		"status":       strconv.Itoa(v.StatusCode),
		"reason":       string(v.Reason),
		"validated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if v.Organization != nil {
		fields["name"] = v.Organization.Name
		fields["address"] = v.Organization.FullAddress()
	}
	return fields
}
