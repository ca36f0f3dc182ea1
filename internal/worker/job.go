package worker

import (
	"github.com/raoulx24/tarsnap-pruner/internal/machine"
)

// Job is one machine to prune within a run.
type Job struct {
	RunID   string
	Index   int // position of the machine in the run, for ordering reports
	Machine *machine.Machine
}
