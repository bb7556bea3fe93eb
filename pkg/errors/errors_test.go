package errors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationError(t *testing.T) {
	t.Run("renders the failure path", func(t *testing.T) {
		err := New(KindResolution, "cannot convert 'abc' to decimal").
			AddStage(StageRepeatSet).
			AddEntity("lineitem").
			AddRecordID("li-1").
			AddField("amount")

		assert.Equal(t, "stage 'repeat set' -> entity 'lineitem' -> record 'li-1' -> field 'amount': cannot convert 'abc' to decimal", err.Error())
	})

	t.Run("inner stage is kept when rethrown", func(t *testing.T) {
		inner := New(KindResolution, "boom").AddStage(StageRepeatSet).AddField("amount")
		outer := Wrap(KindResolution, inner, "merge data failed").AddStage(StageMergeData).AddEntity("lineitem")

		assert.Same(t, inner, outer)
		assert.Equal(t, StageRepeatSet, outer.Stage)
		assert.Equal(t, "lineitem", outer.Entity)
	})

	t.Run("wrap preserves the cause", func(t *testing.T) {
		err := Wrap(KindExternal, context.DeadlineExceeded, "merge service call failed").AddStage(StageMergeService)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "context deadline exceeded")
		assert.True(t, IsKind(err, KindExternal))
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.Nil(t, Wrap(KindResolution, nil, "unused"))
	})

	t.Run("validation names the argument", func(t *testing.T) {
		err := Validation("object_id")
		assert.Equal(t, "stage 'validation' -> field 'object_id': object_id is required", err.Error())
		assert.Equal(t, http.StatusBadRequest, err.StatusCode())
	})

	t.Run("found through wrapping", func(t *testing.T) {
		base := New(KindConfiguration, "template has no merge fields")
		wrapped := errors.Join(errors.New("context"), base)

		found, ok := AsGenerationError(wrapped)
		require.True(t, ok)
		assert.Same(t, base, found)
		assert.Equal(t, http.StatusUnprocessableEntity, found.StatusCode())
	})
}

func TestToHTTPError(t *testing.T) {
	err := New(KindExternal, "renderer rejected the request").AddStage(StageMergeService)

	httpErr := err.ToHTTPError()
	assert.Equal(t, "external", httpErr.Meta["kind"])
	assert.Equal(t, StageMergeService, httpErr.Meta["stage"])
}
