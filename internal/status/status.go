// Package status implements the file-backed run lock and history
// record described in spec.md §4.3: output_dir/status.json tracks
// whether a run is in progress, what it has completed, and what
// previous runs completed before it.
package status

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/takahashim/broadlistening/internal/domainmodel"
	"github.com/takahashim/broadlistening/internal/runid"
)

// Phase is the coarse run state.
type Phase string

const (
	PhaseInitialized Phase = "initialized"
	PhaseRunning     Phase = "running"
	PhaseCompleted   Phase = "completed"
	PhaseError       Phase = "error"
)

// SchemaVersion is bumped whenever status.json's on-disk shape changes
// in an incompatible way.
const SchemaVersion = 1

// longStringThreshold is the length past which a tracked parameter
// value is persisted as a SHA-256 hash rather than verbatim (spec.md
// §4.2, §4.3) — long values are almost always prompt text, which is
// noisy to diff and not worth storing raw.
const longStringThreshold = 100

// Status is the persistent record at output_dir/status.json.
type Status struct {
	SchemaVersion           int                        `json:"schema_version"`
	Status                  Phase                      `json:"status"`
	RunID                   string                     `json:"run_id"`
	Plan                    []domainmodel.PlanStep     `json:"plan"`
	StartTime               *time.Time                 `json:"start_time"`
	EndTime                 *time.Time                 `json:"end_time"`
	CurrentJob              string                     `json:"current_job"`
	CurrentJobStarted       *time.Time                 `json:"current_job_started"`
	LockUntil               *time.Time                 `json:"lock_until"`
	CompletedJobs           []domainmodel.CompletedJob `json:"completed_jobs"`
	PreviouslyCompletedJobs []domainmodel.CompletedJob `json:"previously_completed_jobs"`
	Error                   string                     `json:"error,omitempty"`

	path string
	now  func() time.Time
}

// Load reads status.json from dir, returning a fresh initialized
// Status if the file does not yet exist.
func Load(dir string) (*Status, error) {
	path := filepath.Join(dir, "status.json")
	s := &Status{path: path, now: time.Now, Status: PhaseInitialized, SchemaVersion: SchemaVersion}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("status: parse %s: %w", path, err)
	}
	s.path = path
	s.now = time.Now
	return s, nil
}

// Locked reports whether a run is in progress and its lock window has
// not yet expired.
func (s *Status) Locked() bool {
	if s.Status != PhaseRunning || s.LockUntil == nil {
		return false
	}
	return s.clock().Before(*s.LockUntil)
}

func (s *Status) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Path returns the status.json path this Status persists to, for
// error messages naming it (spec.md §4.1 contract 1).
func (s *Status) Path() string {
	return s.path
}

// StartPipeline resets completed_jobs for the new run, records the
// plan, and opens the lock window.
func (s *Status) StartPipeline(plan []domainmodel.PlanStep, lockDuration time.Duration) error {
	now := s.clock()
	s.Status = PhaseRunning
	s.RunID = runid.New()
	s.Plan = plan
	s.StartTime = &now
	s.EndTime = nil
	s.Error = ""
	s.PreviouslyCompletedJobs = s.AllCompletedJobs()
	s.CompletedJobs = nil
	until := now.Add(lockDuration)
	s.LockUntil = &until
	return s.persist()
}

// StartStep records the step about to run and refreshes the lock
// window (spec.md §5: "refreshed at every start_step").
func (s *Status) StartStep(step string, lockDuration time.Duration) error {
	now := s.clock()
	s.CurrentJob = step
	s.CurrentJobStarted = &now
	until := now.Add(lockDuration)
	s.LockUntil = &until
	return s.persist()
}

// CompleteStep appends a CompletedJob, hashing any long string
// parameter value, clears current_job, and persists. Each job is
// stamped with the run id StartPipeline generated, so a step's record
// can be traced back to the run that produced it once current and
// previous jobs are concatenated by AllCompletedJobs.
func (s *Status) CompleteStep(step string, params map[string]any, duration time.Duration, usage domainmodel.TokenUsage) error {
	s.CompletedJobs = append(s.CompletedJobs, domainmodel.CompletedJob{
		Step:       step,
		RunID:      s.RunID,
		Completed:  s.clock(),
		Duration:   duration,
		Params:     NormalizeParams(params),
		TokenUsage: usage,
	})
	s.CurrentJob = ""
	s.CurrentJobStarted = nil
	return s.persist()
}

// CompletePipeline marks the run finished successfully.
func (s *Status) CompletePipeline() error {
	now := s.clock()
	s.Status = PhaseCompleted
	s.EndTime = &now
	s.CurrentJob = ""
	s.CurrentJobStarted = nil
	return s.persist()
}

// ErrorPipeline marks the run failed with err's message.
func (s *Status) ErrorPipeline(err error) error {
	now := s.clock()
	s.Status = PhaseError
	s.EndTime = &now
	s.Error = err.Error()
	return s.persist()
}

// AllCompletedJobs returns this run's completed jobs followed by
// previously retained ones (spec.md §4.3: "current ∪ previous, current
// first").
func (s *Status) AllCompletedJobs() []domainmodel.CompletedJob {
	out := make([]domainmodel.CompletedJob, 0, len(s.CompletedJobs)+len(s.PreviouslyCompletedJobs))
	out = append(out, s.CompletedJobs...)
	out = append(out, s.PreviouslyCompletedJobs...)
	return out
}

// LastCompletedJob returns the most recent CompletedJob for step
// across current and previous runs, if any.
func (s *Status) LastCompletedJob(step string) (domainmodel.CompletedJob, bool) {
	for _, j := range s.AllCompletedJobs() {
		if j.Step == step {
			return j, true
		}
	}
	return domainmodel.CompletedJob{}, false
}

func (s *Status) persist() error {
	s.SchemaVersion = SchemaVersion
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".status-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// NormalizeParams replaces any string value longer than
// longStringThreshold with its hex SHA-256 digest, the same
// transformation applied before persisting a CompletedJob's params
// (spec.md §4.2, §4.3). The planner calls this on the current run's
// candidate params before comparing them against a stored record, so
// both sides are normalized the same way.
func NormalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		if str, ok := v.(string); ok && len(str) > longStringThreshold {
			out[k] = hashString(str)
			continue
		}
		out[k] = v
	}
	return out
}

func hashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
