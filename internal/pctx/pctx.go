// Package pctx holds the Context the pipeline threads through every
// stage (spec.md §4.4): the growing set of comments, arguments,
// cluster results, labels, and overview text, plus the on-disk codecs
// that let a run resume from any prefix of completed stages.
package pctx

import "github.com/takahashim/broadlistening/internal/domainmodel"

// Stage names, in pipeline order. Used both as planner step identifiers
// and as SaveStep/LoadFromDir dispatch keys.
const (
	StepExtraction       = "extraction"
	StepEmbedding        = "embedding"
	StepClustering       = "clustering"
	StepInitialLabelling = "initial_labelling"
	StepMergeLabelling   = "merge_labelling"
	StepOverview         = "overview"
	StepAggregation      = "aggregation"
)

// Steps lists every stage in execution order.
var Steps = []string{
	StepExtraction,
	StepEmbedding,
	StepClustering,
	StepInitialLabelling,
	StepMergeLabelling,
	StepOverview,
	StepAggregation,
}

const (
	fileArgs          = "args.csv"
	fileRelations     = "relations.csv"
	fileEmbeddings    = "embeddings.json"
	fileClustering    = "clustering.csv"
	fileInitialLabels = "initial_labels.csv"
	fileMergeLabels   = "merge_labels.csv"
	fileOverview      = "overview.txt"
	fileResult        = "hierarchical_result.json"
)

// Context is the mutable state threaded through every stage.
type Context struct {
	Comments       []domainmodel.Comment
	Arguments      []domainmodel.Argument
	Relations      []domainmodel.Relation
	ClusterNums    []int
	ClusterResults domainmodel.ClusterResults
	InitialLabels  map[string]domainmodel.ClusterLabel
	Labels         map[string]domainmodel.Cluster
	Overview       *string
	Result         *domainmodel.Result
	TokenUsage     domainmodel.TokenUsage
	OutputDir      string
}

// New returns an empty Context rooted at dir.
func New(dir string) *Context {
	return &Context{
		OutputDir:      dir,
		ClusterResults: domainmodel.ClusterResults{},
		InitialLabels:  map[string]domainmodel.ClusterLabel{},
		Labels:         map[string]domainmodel.Cluster{},
	}
}

// ArgumentByID returns a pointer into c.Arguments for in-place mutation,
// or nil if no argument with that id exists.
func (c *Context) ArgumentByID(argID string) *domainmodel.Argument {
	for i := range c.Arguments {
		if c.Arguments[i].ArgID == argID {
			return &c.Arguments[i]
		}
	}
	return nil
}
