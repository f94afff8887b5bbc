// Package input loads the comment records spec.md §6 accepts from
// file: CSV with a comment-id/comment-body header, or a JSON array of
// equivalent records. This is the one piece of "loaded from file"
// surface the core spec keeps (CLI argument parsing itself is out of
// scope, spec.md §1).
package input

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

// Load reads comments from path, dispatching on its extension.
func Load(path string) ([]domainmodel.Comment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	default:
		return loadCSV(path)
	}
}

func loadCSV(path string) ([]domainmodel.Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("input: reading header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[normalizeKey(h)] = i
	}
	idIdx, ok := col["comment-id"]
	if !ok {
		return nil, fmt.Errorf("input: missing required comment-id column")
	}
	bodyIdx, hasBody := col["comment-body"]

	var comments []domainmodel.Comment
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if idIdx >= len(rec) || rec[idIdx] == "" {
			return nil, fmt.Errorf("input: missing comment-id")
		}
		c := domainmodel.Comment{ID: rec[idIdx]}
		if hasBody && bodyIdx < len(rec) {
			c.Body = rec[bodyIdx]
		}
		if i, ok := col["source-url"]; ok && i < len(rec) {
			c.SourceURL = rec[i]
		}
		for i, h := range header {
			key := strings.TrimSpace(h)
			if strings.HasPrefix(key, "attribute_") && i < len(rec) && rec[i] != "" {
				if c.Attributes == nil {
					c.Attributes = map[string]string{}
				}
				c.Attributes[strings.TrimPrefix(key, "attribute_")] = rec[i]
			}
		}
		comments = append(comments, c)
	}
	return comments, nil
}

type jsonComment struct {
	ID          string            `json:"id"`
	CommentID   string            `json:"comment_id"`
	CommentID2  string            `json:"comment-id"`
	Body        string            `json:"body"`
	Comment     string            `json:"comment"`
	CommentBody string            `json:"comment_body"`
	ProposalID  string            `json:"proposal_id"`
	SourceURL   string            `json:"source_url"`
	SourceURL2  string            `json:"source-url"`
	Attributes  map[string]string `json:"attributes"`
}

func loadJSON(path string) ([]domainmodel.Comment, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw []jsonComment
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("input: parsing json: %w", err)
	}

	comments := make([]domainmodel.Comment, 0, len(raw))
	for _, r := range raw {
		id := firstNonEmpty(r.ID, r.CommentID, r.CommentID2)
		if id == "" {
			return nil, fmt.Errorf("input: missing comment-id")
		}
		comments = append(comments, domainmodel.Comment{
			ID:         id,
			Body:       firstNonEmpty(r.Body, r.Comment, r.CommentBody),
			ProposalID: r.ProposalID,
			SourceURL:  firstNonEmpty(r.SourceURL, r.SourceURL2),
			Attributes: r.Attributes,
		})
	}
	return comments, nil
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(k), "_", "-"))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
