package routines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icc.tech/aptaskd/internal/registry"
	"icc.tech/aptaskd/internal/report"
	"icc.tech/aptaskd/internal/routine"
)

func TestDevRegisteredInDefaultRegistry(t *testing.T) {
	d, ok := registry.Default().Get("dev")
	require.True(t, ok)
	assert.Equal(t, "loops", d.Args[0].Name)
	assert.Equal(t, 10, d.Args[0].Default)
}

func TestDevRoutine_ProgressSequence(t *testing.T) {
	d, _ := registry.Default().Get("dev")
	r, err := d.New([]any{4})
	require.NoError(t, err)

	proc := r.(routine.Processor)
	var progress []float64
	for !r.Report().IsDone() {
		proc.Process()
		progress = append(progress, r.Report().Progress)
	}

	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1.0}, progress)
	assert.Equal(t, report.StatusDone, r.Report().Status)
}

func TestDevRoutine_RejectsNonPositiveLoops(t *testing.T) {
	d, _ := registry.Default().Get("dev")
	_, err := d.New([]any{0})
	assert.Error(t, err)
}
