package exitcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, OK, Of(nil))
	assert.Equal(t, Errored, Of(base))
	assert.Equal(t, Findings, Of(With(Findings, nil)))
	assert.Equal(t, 7, Of(fmt.Errorf("outer: %w", With(7, base))))
}

func TestReportable(t *testing.T) {
	base := errors.New("boom")

	assert.NoError(t, Reportable(nil))
	assert.NoError(t, Reportable(With(Findings, nil)))
	assert.Equal(t, base, Reportable(base))

	wrapped := With(1, base)
	assert.Equal(t, wrapped, Reportable(wrapped))
	assert.Equal(t, "boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "exit status 3", With(3, nil).Error())
}
