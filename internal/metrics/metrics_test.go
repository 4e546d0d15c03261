package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/mywinecellar/cellar-api/internal/apierr"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeBadRequest, Outcome(apierr.BadRequest("x")))
	assert.Equal(t, OutcomeNotFound, Outcome(apierr.NotFound("x")))
	assert.Equal(t, OutcomeError, Outcome(apierr.Internal(errors.New("x"))))
	assert.Equal(t, OutcomeError, Outcome(errors.New("x")))
}

func TestObserveWrite(t *testing.T) {
	counter := WineWrites.WithLabelValues("edit", OutcomeNotFound)
	before := testutil.ToFloat64(counter)

	ObserveWrite("edit", apierr.NotFound("wine 1 not found"))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
