package pctx

import (
	"fmt"
	"path/filepath"
)

// SaveStep writes only the output file(s) that stage produces (spec.md
// §4.4), into dir (normally c.OutputDir, but callers copying an
// input_dir prefix may target a different directory).
func (c *Context) SaveStep(step, dir string) error {
	switch step {
	case StepExtraction:
		if err := writeArgsCSV(filepath.Join(dir, fileArgs), c.Arguments); err != nil {
			return err
		}
		return writeRelationsCSV(filepath.Join(dir, fileRelations), c.Relations)
	case StepEmbedding:
		return writeEmbeddingsJSON(filepath.Join(dir, fileEmbeddings), c.Arguments)
	case StepClustering:
		return writeClusteringCSV(filepath.Join(dir, fileClustering), c.Arguments, sortedLevels(c.ClusterNums), c.ClusterResults)
	case StepInitialLabelling:
		return writeInitialLabelsCSV(filepath.Join(dir, fileInitialLabels), c.Arguments, sortedLevels(c.ClusterNums), c.ClusterResults, c.InitialLabels)
	case StepMergeLabelling:
		return writeMergeLabelsCSV(filepath.Join(dir, fileMergeLabels), c.Labels)
	case StepOverview:
		return writeOverviewTxt(filepath.Join(dir, fileOverview), c.Overview)
	case StepAggregation:
		if c.Result == nil {
			return fmt.Errorf("pctx: SaveStep(aggregation): Result is nil")
		}
		return writeResultJSON(filepath.Join(dir, fileResult), c.Result)
	default:
		return fmt.Errorf("pctx: unknown step %q", step)
	}
}

// OutputFiles returns the files step declares, relative to dir, in the
// order the planner checks them for rule 5 ("any declared output file
// missing").
func OutputFiles(step string) []string {
	switch step {
	case StepExtraction:
		return []string{fileArgs, fileRelations}
	case StepEmbedding:
		return []string{fileEmbeddings}
	case StepClustering:
		return []string{fileClustering}
	case StepInitialLabelling:
		return []string{fileInitialLabels}
	case StepMergeLabelling:
		return []string{fileMergeLabels}
	case StepOverview:
		return []string{fileOverview}
	case StepAggregation:
		return []string{fileResult}
	default:
		return nil
	}
}
