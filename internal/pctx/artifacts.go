package pctx

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/takahashim/broadlistening/internal/domainmodel"
)

type embeddingsFile struct {
	Arguments []embeddingRecord `json:"arguments"`
}

type embeddingRecord struct {
	ArgID     string    `json:"arg_id"`
	Embedding []float64 `json:"embedding"`
}

func writeEmbeddingsJSON(path string, args []domainmodel.Argument) error {
	doc := embeddingsFile{Arguments: make([]embeddingRecord, len(args))}
	for i, a := range args {
		doc.Arguments[i] = embeddingRecord{ArgID: a.ArgID, Embedding: a.Embedding}
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func readEmbeddingsJSON(path string) (map[string][]float64, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc embeddingsFile
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	out := make(map[string][]float64, len(doc.Arguments))
	for _, r := range doc.Arguments {
		out[r.ArgID] = r.Embedding
	}
	return out, nil
}

func writeOverviewTxt(path string, overview *string) error {
	text := ""
	if overview != nil {
		text = *overview
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

func readOverviewTxt(path string) (*string, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	text := strings.TrimRight(string(b), " \t\r\n")
	if text == "" {
		return nil, nil
	}
	return &text, nil
}

func writeResultJSON(path string, result *domainmodel.Result) error {
	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
