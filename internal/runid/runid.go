// Package runid stamps pipeline runs with a time-ordered identifier, the
// same way the teacher's common/id package stamps relay events: a single
// process-wide snowflake node. There is no multi-node distribution
// here (spec.md §1 Non-goals), so node 1 is the only node that ever
// exists. Each call to New returns a fresh id: status.StartPipeline
// uses one to tag every CompletedJob the run produces, so a step's
// record in status.json's completed_jobs/previously_completed_jobs can
// be traced back to the run that produced it once the two lists are
// concatenated; cmd/broadlisten stamps a separate id onto its log
// context for the same reason log lines carry a request id.
package runid

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node     *snowflake.Node
	initOnce sync.Once
	initErr  error
)

// Init prepares the node. Safe to call more than once; only the first
// call takes effect.
func Init() error {
	initOnce.Do(func() {
		node, initErr = snowflake.NewNode(1)
	})
	return initErr
}

// New returns a new time-ordered run identifier as a string. Callers
// that never call Init get a lazily-initialized default node.
func New() string {
	if node == nil {
		if err := Init(); err != nil {
			return ""
		}
	}
	return node.Generate().String()
}
