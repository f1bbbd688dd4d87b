package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/hybridsearch/internal/output"
	"github.com/Aman-CERP/hybridsearch/pkg/hybrid"
)

func newAddCmd() *cobra.Command {
	var (
		dir   string
		slug  string
		title string
		body  string
		views int64
		file  string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one or more documents to the index",
		Long: `Add indexes a single document given by flags, or a batch of
documents read as newline-delimited JSON from --file (one Document
object per line: {"slug":..., "title":..., "body":..., "views":...}).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			ctx := cmd.Context()

			spec, err := documentSpec()
			if err != nil {
				return fmt.Errorf("reflect document schema: %w", err)
			}
			idx, err := hybrid.Load[Document](dir, "", spec)
			if err != nil {
				return fmt.Errorf("load index: %w", err)
			}
			defer func() { _ = idx.Close() }()

			var docs []Document
			if file != "" {
				docs, err = readDocsFile(file)
				if err != nil {
					return err
				}
			} else {
				if slug == "" || title == "" {
					return fmt.Errorf("add: --slug and --title are required without --file")
				}
				docs = []Document{{Slug: slug, Title: title, Body: body, Views: views}}
			}

			if err := addDocs(ctx, idx, docs); err != nil {
				return err
			}

			if err := idx.Commit(ctx); err != nil {
				return fmt.Errorf("commit: %w", err)
			}

			out.Success(fmt.Sprintf("indexed %d document(s)", len(docs)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".hybridsearch", "Index directory")
	cmd.Flags().StringVar(&slug, "slug", "", "Document slug (primary id)")
	cmd.Flags().StringVar(&title, "title", "", "Document title")
	cmd.Flags().StringVar(&body, "body", "", "Document body")
	cmd.Flags().Int64Var(&views, "views", 0, "Document view count")
	cmd.Flags().StringVar(&file, "file", "", "Path to a newline-delimited JSON file of documents")

	return cmd
}

func readDocsFile(path string) ([]Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var docs []Document
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var d Document
		if err := json.Unmarshal(line, &d); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		docs = append(docs, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return docs, nil
}

func addDocs(ctx context.Context, idx *hybrid.Index[Document], docs []Document) error {
	info, err := idx.Info(ctx)
	if err != nil {
		return fmt.Errorf("index info: %w", err)
	}

	vecs := make([][]float32, len(docs))
	for i, d := range docs {
		vecs[i] = staticVector(d.Title+" "+d.Body, info.Dimension)
	}

	if _, err := idx.AddBatch(ctx, docs, vecs); err != nil {
		return fmt.Errorf("add batch: %w", err)
	}
	return nil
}
