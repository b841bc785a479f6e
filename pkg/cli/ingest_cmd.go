package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"querywatch/internal/domain"
)

// ingestBatchSize bounds how many records are buffered before each
// batch insert.
const ingestBatchSize = 1000

func newIngestCmd(dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.jsonl>",
		Short: "Bulk-load query records from a JSON-lines file",
		Long: `Load query records into the local store, one JSON object per line:

  {"user_name": "alice", "query_id": "q-1", "start_time": "2026-03-10T09:15:00Z",
   "query_text": "SELECT * FROM sales.orders", "execution_status": "SUCCESS",
   "query_type": "SELECT"}

user_name, query_id, and start_time are required. Records are inserted
with INSERT OR IGNORE on query_id, so re-ingesting a file is
idempotent. Pass - to read from stdin.`,
		Example: `  querywatch ingest queries.jsonl
  zcat export.jsonl.gz | querywatch ingest -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, *dbPath, args[0])
		},
	}
}

type ingestLine struct {
	UserName        string    `json:"user_name"`
	QueryID         string    `json:"query_id"`
	StartTime       time.Time `json:"start_time"`
	QueryText       string    `json:"query_text"`
	ExecutionStatus string    `json:"execution_status"`
	QueryType       string    `json:"query_type"`
}

func runIngest(cmd *cobra.Command, dbPath, path string) error {
	var in io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	st, err := openStore(dbPath)
	if err != nil {
		return err
	}
	defer st.close()

	ctx := cmd.Context()
	scanner := bufio.NewScanner(in)
	// Query texts can be long; default 64K lines are not enough.
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var batch []domain.QueryRecord
	total := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec ingestLine
		if err := json.Unmarshal(line, &rec); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if rec.UserName == "" || rec.QueryID == "" || rec.StartTime.IsZero() {
			return fmt.Errorf("line %d: user_name, query_id, and start_time are required", lineNo)
		}
		batch = append(batch, domain.QueryRecord{
			UserName:        rec.UserName,
			QueryID:         rec.QueryID,
			StartTime:       rec.StartTime.UTC(),
			QueryText:       rec.QueryText,
			ExecutionStatus: rec.ExecutionStatus,
			QueryType:       rec.QueryType,
		})
		if len(batch) >= ingestBatchSize {
			if err := st.queryLog.Insert(ctx, batch); err != nil {
				return err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(batch) > 0 {
		if err := st.queryLog.Insert(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
	}

	if getOutputFormat(cmd) == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{"ingested": total})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d query records into %s\n", total, dbPath)
	return nil
}
