package ingest

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/lead-engine/internal/config"
	"github.com/ignite/lead-engine/internal/domain"
	"github.com/ignite/lead-engine/internal/service/pool"
)

type fakeS3 struct {
	objects map[string]string
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	var contents []s3types.Object
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			contents = append(contents, s3types.Object{Key: aws.String(key)})
		}
	}
	return &s3.ListObjectsV2Output{Contents: contents}, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body := f.objects[aws.ToString(params.Key)]
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

type captureUpserter struct {
	inputs []pool.UpsertInput
}

func (c *captureUpserter) Upsert(_ context.Context, in pool.UpsertInput) (*domain.PoolEntry, error) {
	if strings.TrimSpace(in.Email) == "" {
		return nil, pool.ErrEmailMissing
	}
	c.inputs = append(c.inputs, in)
	return &domain.PoolEntry{ID: "p1", Email: in.Email}, nil
}

func testCfg() config.IngestConfig {
	return config.IngestConfig{
		Enabled:   true,
		S3Bucket:  "enrichment",
		S3Prefix:  "feed/",
		BatchSize: 500,
	}
}

func TestRunOnce_UpsertsRecords(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"feed/2026-03-10.jsonl": strings.Join([]string{
			`{"email":"jane@acme.com","first_name":"Jane","industry":"saas","confidence":0.9,"email_status":"verified"}`,
			`{"email":"bob@globex.io","title":"CTO","employee_count":80}`,
		}, "\n"),
	}}
	sink := &captureUpserter{}
	feed := newFeed(client, testCfg(), sink)

	n, err := feed.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, sink.inputs, 2)
	emails := []string{sink.inputs[0].Email, sink.inputs[1].Email}
	assert.ElementsMatch(t, []string{"jane@acme.com", "bob@globex.io"}, emails)
}

func TestRunOnce_SkipsBadLinesAndBlankRecords(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"feed/batch.jsonl": strings.Join([]string{
			`{"email":"ok@acme.com"}`,
			`{not json`,
			``,
			`{"first_name":"NoEmail"}`,
			`{"email":"also-ok@acme.com"}`,
		}, "\n"),
	}}
	sink := &captureUpserter{}
	feed := newFeed(client, testCfg(), sink)

	n, err := feed.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n, "only well-formed records with an email count")
	assert.Len(t, sink.inputs, 2)
}

func TestRunOnce_IgnoresNonJSONLKeys(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"feed/readme.txt":   "not a feed file",
		"other/x.jsonl":     `{"email":"wrong-prefix@acme.com"}`,
		"feed/good.jsonl":   `{"email":"good@acme.com"}`,
	}}
	sink := &captureUpserter{}
	feed := newFeed(client, testCfg(), sink)

	n, err := feed.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunOnce_DoesNotReprocessSeenFiles(t *testing.T) {
	client := &fakeS3{objects: map[string]string{
		"feed/batch.jsonl": `{"email":"jane@acme.com"}`,
	}}
	sink := &captureUpserter{}
	feed := newFeed(client, testCfg(), sink)

	n, err := feed.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = feed.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "a file is ingested once per process lifetime")
	assert.Len(t, sink.inputs, 1)
}
