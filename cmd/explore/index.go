package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	tsclient "github.com/zatekoja/contentexplore/internal/infrastructure/clients/typesense"
)

func newIndexCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Load content documents from a JSON file into Typesense",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runIndex(cmd.Context(), cmd.OutOrStdout(), file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "JSON array of content documents")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) runIndex(ctx context.Context, out io.Writer, file string) error {
	docs, err := readDocuments(file)
	if err != nil {
		return err
	}

	client, err := tsclient.NewClient(&a.cfg.Typesense, a.logger)
	if err != nil {
		return err
	}
	if err := client.InitSchema(ctx); err != nil {
		return err
	}

	now := time.Now().Unix()
	indexed := 0
	for _, doc := range docs {
		if _, ok := doc["id"]; !ok {
			a.logger.Warn().Msg("skipping document without id")
			continue
		}
		doc["id"] = fmt.Sprint(doc["id"])
		if _, ok := doc["created_at"]; !ok {
			doc["created_at"] = now
		}
		if err := client.IndexDocument(ctx, doc); err != nil {
			return fmt.Errorf("index document %v: %w", doc["id"], err)
		}
		indexed++
	}

	fmt.Fprintf(out, "indexed %d documents into %s\n", indexed, client.Collection())
	return nil
}

func readDocuments(path string) ([]map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []map[string]interface{}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return docs, nil
}
