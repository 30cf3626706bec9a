// Package ingest pulls enrichment records from the S3 feed into the
// lead pool.
//
// Providers drop JSON Lines files under a configured prefix; each line
// is one normalized identity+company record. Processing is idempotent:
// records flow through the pool upsert, which merges rather than
// duplicates, so replaying a file is harmless.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/pkg/logger"
	"github.com/ignite/lead-engine/internal/service/pool"
)

// Scanner line buffer; enrichment records are small but vendor exports
// occasionally pack large raw payloads onto one line.
const maxLineBytes = 1024 * 1024

type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Upserter is the slice of the pool service the feed writes through.
type Upserter interface {
	Upsert(ctx context.Context, in pool.UpsertInput) (*domain.PoolEntry, error)
}

// Feed reads enrichment files from S3 and upserts their records into
// the pool. One Feed instance runs per process; RunOnce is triggered
// by the worker loop.
type Feed struct {
	client s3API
	pool   Upserter
	cfg    config.IngestConfig

	seen map[string]struct{}
}

// NewFeed builds a feed with real AWS credentials from the default
// chain.
func NewFeed(ctx context.Context, cfg config.IngestConfig, upserter Upserter) (*Feed, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newFeed(s3.NewFromConfig(awsCfg), cfg, upserter), nil
}

func newFeed(client s3API, cfg config.IngestConfig, upserter Upserter) *Feed {
	return &Feed{
		client: client,
		pool:   upserter,
		cfg:    cfg,
		seen:   make(map[string]struct{}),
	}
}

// RunOnce discovers unprocessed .jsonl files under the prefix and
// ingests them. Returns the number of records upserted across all
// files. Files already handled by this process are skipped; replays
// after a restart converge through the pool merge.
func (f *Feed) RunOnce(ctx context.Context) (int, error) {
	keys, err := f.listKeys(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, key := range keys {
		if _, done := f.seen[key]; done {
			continue
		}
		n, err := f.processFile(ctx, key)
		if err != nil {
			logger.Warn("ingest file failed", "key", key, "error", err.Error())
			continue
		}
		f.seen[key] = struct{}{}
		total += n
	}
	return total, nil
}

func (f *Feed) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		page, err := f.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(f.cfg.S3Bucket),
			Prefix:            aws.String(f.cfg.S3Prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list feed objects: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ".jsonl") {
				keys = append(keys, key)
			}
		}
		if page.NextContinuationToken == nil {
			return keys, nil
		}
		token = page.NextContinuationToken
	}
}

// processFile streams one JSONL file through the pool upsert.
// Malformed lines are logged and skipped; a bad record must not block
// the rest of the file.
func (f *Feed) processFile(ctx context.Context, key string) (int, error) {
	start := time.Now()

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.cfg.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("get feed object: %w", err)
	}
	defer out.Body.Close()

	scanner := bufio.NewScanner(out.Body)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	upserted, skipped, line := 0, 0, 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var in pool.UpsertInput
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			logger.Warn("skipping malformed feed record", "key", key, "line", line)
			skipped++
			continue
		}
		if _, err := f.pool.Upsert(ctx, in); err != nil {
			if err == pool.ErrEmailMissing {
				skipped++
				continue
			}
			return upserted, fmt.Errorf("upsert record at line %d: %w", line, err)
		}
		upserted++
	}
	if err := scanner.Err(); err != nil {
		return upserted, fmt.Errorf("read feed object: %w", err)
	}

	logger.Info("ingested feed file",
		"key", key,
		"upserted", upserted,
		"skipped", skipped,
		"elapsed", time.Since(start).String(),
	)
	return upserted, nil
}
