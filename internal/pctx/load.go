package pctx

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadFromDir populates c from whichever subset of the on-disk files
// exists in dir, in stage order, so later files enrich the records
// earlier files created (spec.md §4.4). Missing files are tolerated.
func (c *Context) LoadFromDir(dir string) error {
	argsPath := filepath.Join(dir, fileArgs)
	relPath := filepath.Join(dir, fileRelations)
	if exists(argsPath) {
		args, err := readArgsCSV(argsPath)
		if err != nil {
			return err
		}
		c.Arguments = args
	}
	if exists(relPath) {
		rels, err := readRelationsCSV(relPath)
		if err != nil {
			return err
		}
		c.Relations = rels
		byArg := make(map[string]string, len(rels))
		for _, r := range rels {
			byArg[r.ArgID] = r.CommentID
		}
		for i := range c.Arguments {
			c.Arguments[i].CommentID = byArg[c.Arguments[i].ArgID]
		}
	}

	embPath := filepath.Join(dir, fileEmbeddings)
	if exists(embPath) {
		embeddings, err := readEmbeddingsJSON(embPath)
		if err != nil {
			return err
		}
		for i := range c.Arguments {
			if e, ok := embeddings[c.Arguments[i].ArgID]; ok {
				c.Arguments[i].Embedding = e
			}
		}
	}

	clusterPath := filepath.Join(dir, fileClustering)
	if exists(clusterPath) {
		rows, err := readClusteringCSV(clusterPath)
		if err != nil {
			return err
		}
		byArg := make(map[string]domainmodel.Argument, len(rows))
		for _, row := range rows {
			byArg[row.ArgID] = row
		}
		levels := map[int]bool{}
		results := domainmodel.ClusterResults{}
		for i := range c.Arguments {
			row, ok := byArg[c.Arguments[i].ArgID]
			if !ok {
				continue
			}
			c.Arguments[i].X = row.X
			c.Arguments[i].Y = row.Y
			c.Arguments[i].ClusterIDs = row.ClusterIDs
			for _, id := range row.ClusterIDs {
				level, k, ok := parseClusterID(id)
				if !ok {
					continue
				}
				levels[level] = true
				if results[level] == nil {
					results[level] = make([]int, len(c.Arguments))
				}
				results[level][i] = k
			}
		}
		nums := make([]int, 0, len(levels))
		for l := range levels {
			nums = append(nums, l)
		}
		sort.Ints(nums)
		c.ClusterNums = nums
		c.ClusterResults = results
	}

	initLabelsPath := filepath.Join(dir, fileInitialLabels)
	if exists(initLabelsPath) {
		labels, err := readInitialLabelsCSV(initLabelsPath)
		if err != nil {
			return err
		}
		c.InitialLabels = labels
	}

	mergeLabelsPath := filepath.Join(dir, fileMergeLabels)
	if exists(mergeLabelsPath) {
		labels, err := readMergeLabelsCSV(mergeLabelsPath)
		if err != nil {
			return err
		}
		c.Labels = labels
	}

	overviewPath := filepath.Join(dir, fileOverview)
	if exists(overviewPath) {
		overview, err := readOverviewTxt(overviewPath)
		if err != nil {
			return err
		}
		c.Overview = overview
	}

	return nil
}

// parseClusterID splits a "<level>_<k>" cluster id, per ClusterID's
// format. The synthetic root "0" is not a parseable (level, k) pair.
func parseClusterID(id string) (level, k int, ok bool) {
	if id == "0" {
		return 0, 0, false
	}
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return 0, 0, false
	}
	level, err1 := strconv.Atoi(id[:i])
	k, err2 := strconv.Atoi(id[i+1:])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return level, k, true
}
