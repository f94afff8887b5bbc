// Package domainmodel holds the typed records shared by every pipeline
// stage: comments and arguments flowing in, cluster labels and the
// hierarchy assembled mid-run, and the status/plan bookkeeping the
// orchestrator persists between runs.
package domainmodel

import (
	"strconv"
	"strings"
	"time"
)

// Comment is one input record. Immutable after ingestion.
type Comment struct {
	ID         string            `json:"id"`
	Body       string            `json:"body"`
	ProposalID string            `json:"proposal_id,omitempty"`
	SourceURL  string            `json:"source_url,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Argument is one opinion extracted from a comment, progressively
// enriched by the embedding and clustering stages.
type Argument struct {
	ArgID      string    `json:"arg_id"`
	Argument   string    `json:"argument"`
	CommentID  string    `json:"comment_id"`
	Embedding  []float64 `json:"embedding,omitempty"`
	X          float64   `json:"x"`
	Y          float64   `json:"y"`
	ClusterIDs []string  `json:"cluster_ids,omitempty"`
}

// ArgIndex returns the zero-based opinion index encoded in the arg_id
// suffix ("A<comment_id>_<idx>" -> idx).
func ArgIndex(argID string) (int, bool) {
	i := strings.LastIndex(argID, "_")
	if i < 0 || i == len(argID)-1 {
		return 0, false
	}
	n, err := strconv.Atoi(argID[i+1:])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MakeArgID builds the canonical "A<comment_id>_<idx>" identifier.
func MakeArgID(commentID string, idx int) string {
	return "A" + commentID + "_" + strconv.Itoa(idx)
}

// Relation is the redundant (arg_id, comment_id) pair persisted
// separately so extraction output can be reloaded without re-parsing.
type Relation struct {
	ArgID     string `json:"arg_id"`
	CommentID string `json:"comment_id"`
}

// ClusterResults maps level -> per-argument flat-partition index at
// that level. The slice is positional: ClusterResults[level][i] is the
// cluster number assigned to the i-th argument (in stable input order).
type ClusterResults map[int][]int

// ClusterLabel is the label and description the labelling stages assign
// to one cluster.
type ClusterLabel struct {
	ClusterID   string `json:"cluster_id"`
	Level       int    `json:"level"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Cluster is the output view of a cluster, including density metrics.
type Cluster struct {
	Level                 int      `json:"level"`
	ID                     string   `json:"id"`
	Label                  string   `json:"label"`
	Takeaway               string   `json:"takeaway"`
	Value                  int      `json:"value"`
	Parent                 string   `json:"parent"`
	Density                float64  `json:"density"`
	DensityRank            int      `json:"density_rank"`
	DensityRankPercentile  *float64 `json:"density_rank_percentile"`
}

// TokenUsage tracks opaque input/output token counters, never pricing.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Add accumulates u into a copy of t and returns the result.
func (t TokenUsage) Add(u TokenUsage) TokenUsage {
	return TokenUsage{
		PromptTokens:     t.PromptTokens + u.PromptTokens,
		CompletionTokens: t.CompletionTokens + u.CompletionTokens,
	}
}

// CompletedJob records one past stage execution.
type CompletedJob struct {
	Step       string         `json:"step"`
	RunID      string         `json:"run_id"`
	Completed  time.Time      `json:"completed"`
	Duration   time.Duration  `json:"duration"`
	Params     map[string]any `json:"params"`
	TokenUsage TokenUsage     `json:"token_usage"`
}

// PlanStep records whether the planner decided a stage should run.
type PlanStep struct {
	Step   string `json:"step"`
	Run    bool   `json:"run"`
	Reason string `json:"reason"`
}

// PromptsConfig holds the per-stage LLM prompt text tracked by the planner.
type PromptsConfig struct {
	Extraction       string `json:"extraction" yaml:"extraction"`
	InitialLabelling string `json:"initial_labelling" yaml:"initial_labelling"`
	MergeLabelling   string `json:"merge_labelling" yaml:"merge_labelling"`
	Overview         string `json:"overview" yaml:"overview"`
}

// Config is the configuration recognized by the core (spec.md §6).
// Provider/endpoint details belong to the external collaborators, not here.
type Config struct {
	Model           string        `json:"model" yaml:"model"`
	EmbeddingModel  string        `json:"embedding_model" yaml:"embedding_model"`
	ClusterNums     []int         `json:"cluster_nums" yaml:"cluster_nums"`
	AutoClusterNums bool          `json:"auto_cluster_nums" yaml:"auto_cluster_nums"`
	Workers         int           `json:"workers" yaml:"workers"`
	Prompts         PromptsConfig `json:"prompts" yaml:"prompts"`
	Limit           *int          `json:"limit,omitempty" yaml:"limit,omitempty"`
	RandomState     int64         `json:"random_state" yaml:"random_state"`
}

// WorkersOrDefault returns Workers, defaulting to 10 (spec.md §5).
func (c Config) WorkersOrDefault() int {
	if c.Workers <= 0 {
		return 10
	}
	return c.Workers
}

// Export renders the config as a plain map for embedding in the final
// result JSON's "config" key.
func (c Config) Export() map[string]any {
	m := map[string]any{
		"model":             c.Model,
		"embedding_model":   c.EmbeddingModel,
		"cluster_nums":      c.ClusterNums,
		"auto_cluster_nums": c.AutoClusterNums,
		"workers":           c.WorkersOrDefault(),
		"prompts": map[string]any{
			"extraction":        c.Prompts.Extraction,
			"initial_labelling": c.Prompts.InitialLabelling,
			"merge_labelling":   c.Prompts.MergeLabelling,
			"overview":          c.Prompts.Overview,
		},
		"random_state": c.RandomState,
	}
	if c.Limit != nil {
		m["limit"] = *c.Limit
	}
	return m
}

// ResultArgument is one argument as it appears in the final artifact.
type ResultArgument struct {
	ArgID      string            `json:"arg_id"`
	Argument   string            `json:"argument"`
	CommentID  any               `json:"comment_id"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	P          int               `json:"p"`
	ClusterIDs []string          `json:"cluster_ids"`
	Attributes map[string]string `json:"attributes,omitempty"`
	URL        string            `json:"url,omitempty"`
}

// ResultComment is one comment as it appears in the final artifact's
// comments map, keyed by (string) comment id.
type ResultComment struct {
	Comment string `json:"comment"`
}

// Result is the top-level output artifact (spec.md §3, §6).
type Result struct {
	Arguments   []ResultArgument          `json:"arguments"`
	Clusters    []Cluster                 `json:"clusters"`
	Comments    map[string]ResultComment  `json:"comments"`
	PropertyMap map[string]any            `json:"propertyMap"`
	Translations map[string]any           `json:"translations"`
	Overview    *string                   `json:"overview"`
	Config      map[string]any            `json:"config"`
	CommentNum  int                       `json:"comment_num"`
}

// ResolveCommentID implements the comment_id coercion rule from
// spec.md §4.11: the numeric form of the comment's own id, falling back
// to the numeric suffix embedded in the comment's portion of the
// argument id when the comment id itself is not numeric.
func ResolveCommentID(argID, commentID string) any {
	if n, err := strconv.Atoi(commentID); err == nil {
		return n
	}
	// arg_id is "A<comment_id>_<idx>"; strip the leading "A" and
	// trailing "_<idx>" to recover the comment segment, then pull any
	// digits out of it.
	body := strings.TrimPrefix(argID, "A")
	if i := strings.LastIndex(body, "_"); i >= 0 {
		body = body[:i]
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, body)
	if digits == "" {
		return commentID
	}
	if n, err := strconv.Atoi(digits); err == nil {
		return n
	}
	return commentID
}
