package redis

import (
	"context"
	"errors"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "nonprofit-ads-analysis/internal/common/errors"
	"nonprofit-ads-analysis/internal/features/nonprofit/models"
)

type fakeStream struct {
	args []*goredis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd {
	f.args = append(f.args, a)
	cmd := goredis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("1-0")
	}
	return cmd
}

func TestPublishValidation(t *testing.T) {
	fs := &fakeStream{}
	pub := NewStreamPublisher(fs, "nonprofit:validations", 1000)

	v := models.Validation{
		EIN:          "11-1111111",
		Valid:        true,
		StatusCode:   200,
		Reason:       models.ReasonFound,
		Organization: &models.Organization{Name: "Friends of Parks", City: "Springfield"},
	}
	require.NoError(t, pub.PublishValidation(context.Background(), "run-1", v))

	require.Len(t, fs.args, 1)
	a := fs.args[0]
	assert.Equal(t, "nonprofit:validations", a.Stream)
	assert.Equal(t, int64(1000), a.MaxLen)
	assert.True(t, a.Approx)

	values := a.Values.(map[string]interface{})
	assert.Equal(t, "run-1", values["run_id"])
	assert.Equal(t, "11-1111111", values["ein"])
	assert.Equal(t, "true", values["valid"])
	assert.Equal(t, "200", values["status"])
	assert.Equal(t, "found", values["reason"])
	assert.Equal(t, "Friends of Parks", values["name"])
	assert.Equal(t, "Springfield", values["address"])
}

func TestPublishValidation_Error(t *testing.T) {
	pub := NewStreamPublisher(&fakeStream{err: errors.New("connection refused")}, "s", 0)

	err := pub.PublishValidation(context.Background(), "run", models.Validation{EIN: "22-2222222", StatusCode: 404, Reason: models.ReasonHTTPStatus})
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeStreamError, appErr.Code)
	assert.Equal(t, "22-2222222", appErr.Details["ein"])
}

func TestValidationFields_WithoutOrganization(t *testing.T) {
	fields := ValidationFields("run", models.Validation{EIN: "22-2222222", StatusCode: 404, Reason: models.ReasonHTTPStatus})
	assert.Equal(t, "false", fields["valid"])
	assert.NotContains(t, fields, "name")
	assert.NotEmpty(t, fields["validated_at"])
}
