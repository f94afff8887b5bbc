package pctx

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/takahashim/broadlistening/internal/clustering"
	"github.com/takahashim/broadlistening/internal/domainmodel"
)

func openWriter(path string) (*os.File, *csv.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, csv.NewWriter(f), nil
}

func openReader(path string) (*os.File, *csv.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return f, r, nil
}

func readHeaderedRows(path string) (header []string, rows [][]string, err error) {
	f, r, err := openReader(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	header, err = r.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

// writeArgsCSV writes args.csv: columns arg-id,argument.
func writeArgsCSV(path string, args []domainmodel.Argument) error {
	f, w, err := openWriter(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := w.Write([]string{"arg-id", "argument"}); err != nil {
		return err
	}
	for _, a := range args {
		if err := w.Write([]string{a.ArgID, a.Argument}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readArgsCSV(path string) ([]domainmodel.Argument, error) {
	_, rows, err := readHeaderedRows(path)
	if err != nil || rows == nil {
		return nil, err
	}
	args := make([]domainmodel.Argument, 0, len(rows))
	for _, rec := range rows {
		if len(rec) < 2 {
			continue
		}
		args = append(args, domainmodel.Argument{ArgID: rec[0], Argument: rec[1]})
	}
	return args, nil
}

// writeRelationsCSV writes relations.csv: columns arg-id,comment-id.
func writeRelationsCSV(path string, rels []domainmodel.Relation) error {
	f, w, err := openWriter(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := w.Write([]string{"arg-id", "comment-id"}); err != nil {
		return err
	}
	for _, r := range rels {
		if err := w.Write([]string{r.ArgID, r.CommentID}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readRelationsCSV(path string) ([]domainmodel.Relation, error) {
	_, rows, err := readHeaderedRows(path)
	if err != nil || rows == nil {
		return nil, err
	}
	rels := make([]domainmodel.Relation, 0, len(rows))
	for _, rec := range rows {
		if len(rec) < 2 {
			continue
		}
		rels = append(rels, domainmodel.Relation{ArgID: rec[0], CommentID: rec[1]})
	}
	return rels, nil
}

func levelColumns(levels []int, suffix string) []string {
	cols := make([]string, len(levels))
	for i := range levels {
		cols[i] = fmt.Sprintf("cluster-level-%d-%s", i+1, suffix)
	}
	return cols
}

func sortedLevels(nums []int) []int {
	levels := append([]int(nil), nums...)
	sort.Ints(levels)
	return levels
}

// writeClusteringCSV writes clustering.csv: arg-id,argument,x,y,
// cluster-level-1-id,...,cluster-level-L-id.
func writeClusteringCSV(path string, args []domainmodel.Argument, levels []int, results domainmodel.ClusterResults) error {
	f, w, err := openWriter(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := append([]string{"arg-id", "argument", "x", "y"}, levelColumns(levels, "id")...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i, a := range args {
		rec := []string{a.ArgID, a.Argument, formatFloat(a.X), formatFloat(a.Y)}
		for _, l := range levels {
			rec = append(rec, clustering.ClusterID(l, results[l][i]))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readClusteringCSV(path string) ([]domainmodel.Argument, error) {
	header, rows, err := readHeaderedRows(path)
	if err != nil || rows == nil {
		return nil, err
	}
	nLevels := len(header) - 4
	args := make([]domainmodel.Argument, 0, len(rows))
	for _, rec := range rows {
		if len(rec) < 4 {
			continue
		}
		x, _ := strconv.ParseFloat(rec[2], 64)
		y, _ := strconv.ParseFloat(rec[3], 64)
		ids := make([]string, 0, nLevels+1)
		ids = append(ids, clustering.RootID)
		for i := 0; i < nLevels && 4+i < len(rec); i++ {
			ids = append(ids, rec[4+i])
		}
		args = append(args, domainmodel.Argument{
			ArgID: rec[0], Argument: rec[1], X: x, Y: y, ClusterIDs: ids,
		})
	}
	return args, nil
}

// writeInitialLabelsCSV writes initial_labels.csv: clustering columns
// plus, per level, a label and description column.
func writeInitialLabelsCSV(path string, args []domainmodel.Argument, levels []int, results domainmodel.ClusterResults, labels map[string]domainmodel.ClusterLabel) error {
	f, w, err := openWriter(path)
	if err != nil {
		return err
	}
	defer f.Close()

	header := append([]string{"arg-id", "argument", "x", "y"}, levelColumns(levels, "id")...)
	for i := range levels {
		header = append(header, fmt.Sprintf("cluster-level-%d-label", i+1), fmt.Sprintf("cluster-level-%d-description", i+1))
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for i, a := range args {
		rec := []string{a.ArgID, a.Argument, formatFloat(a.X), formatFloat(a.Y)}
		ids := make([]string, len(levels))
		for j, l := range levels {
			ids[j] = clustering.ClusterID(l, results[l][i])
			rec = append(rec, ids[j])
		}
		for _, id := range ids {
			lbl := labels[id]
			rec = append(rec, lbl.Label, lbl.Description)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readInitialLabelsCSV(path string) (map[string]domainmodel.ClusterLabel, error) {
	header, rows, err := readHeaderedRows(path)
	if err != nil || rows == nil {
		return nil, err
	}
	nLevels := 0
	for _, h := range header {
		if h != "arg-id" && len(h) > len("-id") && h[len(h)-3:] == "-id" {
			nLevels++
		}
	}
	out := map[string]domainmodel.ClusterLabel{}
	idStart := 4
	for _, rec := range rows {
		for i := 0; i < nLevels; i++ {
			idCol := idStart + i
			lblCol := idStart + nLevels + i*2
			descCol := lblCol + 1
			if idCol >= len(rec) || descCol >= len(rec) {
				continue
			}
			id := rec[idCol]
			if rec[lblCol] == "" && rec[descCol] == "" {
				continue
			}
			out[id] = domainmodel.ClusterLabel{ClusterID: id, Label: rec[lblCol], Description: rec[descCol]}
		}
	}
	return out, nil
}

// writeMergeLabelsCSV writes merge_labels.csv: one row per labeled,
// non-root cluster, with the density and structural fields the
// clustering stage filled in.
func writeMergeLabelsCSV(path string, labels map[string]domainmodel.Cluster) error {
	f, w, err := openWriter(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := w.Write([]string{"level", "id", "label", "description", "value", "parent", "density", "density_rank", "density_rank_percentile"}); err != nil {
		return err
	}

	ids := make([]string, 0, len(labels))
	for id := range labels {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := labels[ids[i]], labels[ids[j]]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		return ids[i] < ids[j]
	})

	for _, id := range ids {
		c := labels[id]
		percentile := ""
		if c.DensityRankPercentile != nil {
			percentile = formatFloat(*c.DensityRankPercentile)
		}
		rec := []string{
			strconv.Itoa(c.Level), c.ID, c.Label, c.Takeaway,
			strconv.Itoa(c.Value), c.Parent,
			formatFloat(c.Density), strconv.Itoa(c.DensityRank), percentile,
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func readMergeLabelsCSV(path string) (map[string]domainmodel.Cluster, error) {
	_, rows, err := readHeaderedRows(path)
	if err != nil || rows == nil {
		return nil, err
	}
	out := map[string]domainmodel.Cluster{}
	for _, rec := range rows {
		if len(rec) < 9 {
			continue
		}
		level, _ := strconv.Atoi(rec[0])
		value, _ := strconv.Atoi(rec[4])
		density, _ := strconv.ParseFloat(rec[6], 64)
		rank, _ := strconv.Atoi(rec[7])
		var percentile *float64
		if rec[8] != "" {
			if p, err := strconv.ParseFloat(rec[8], 64); err == nil {
				percentile = &p
			}
		}
		out[rec[1]] = domainmodel.Cluster{
			Level: level, ID: rec[1], Label: rec[2], Takeaway: rec[3],
			Value: value, Parent: rec[5], Density: density,
			DensityRank: rank, DensityRankPercentile: percentile,
		}
	}
	return out, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
