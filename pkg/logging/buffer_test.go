package logging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogCaptureWriter(t *testing.T) {
	w := &LogCaptureWriter{}
	assert.Empty(t, w.GetLastLine())
	assert.Nil(t, w.Recent(5))

	for i := range captureSize + 3 {
		_, _ = fmt.Fprintf(w, "line %d\n", i)
	}

	assert.Equal(t, uint64(captureSize+3), w.Lines())
	assert.Equal(t, fmt.Sprintf("line %d", captureSize+2), w.GetLastLine())

	recent := w.Recent(3)
	assert.Equal(t, []string{
		fmt.Sprintf("line %d", captureSize),
		fmt.Sprintf("line %d", captureSize+1),
		fmt.Sprintf("line %d", captureSize+2),
	}, recent)

	all := w.Recent(1000)
	assert.Len(t, all, captureSize)
	assert.Equal(t, "line 3", all[0], "oldest retained line")
}
