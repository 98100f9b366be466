package storage

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aacsb-sync/models"
)

type fakeObjects struct {
	objects map[string][]byte
	listed  []types.Object
	deleted []string
}

func (f *fakeObjects) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{Contents: f.listed}, nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestArchiveImport(t *testing.T) {
	fake := &fakeObjects{}
	archive := NewArchive(fake, "aacsb", zap.NewNop())

	run := &models.SyncRun{RunID: uuid.MustParse("6f1c0b1e-8d0e-4f7a-9d55-2d7c8f0a1b2c"), Entity: models.EntityFaculty, Inserted: 3}
	require.NoError(t, archive.ArchiveImport(context.Background(), run, "/tmp/교원명단.xlsx", []byte("xlsx")))

	prefix := "imports/faculty/6f1c0b1e-8d0e-4f7a-9d55-2d7c8f0a1b2c/"
	assert.Equal(t, []byte("xlsx"), fake.objects[prefix+"교원명단.xlsx"])

	var summary models.SyncRun
	require.NoError(t, json.Unmarshal(fake.objects[prefix+"summary.json"], &summary))
	assert.Equal(t, 3, summary.Inserted)
}

func TestRotate_KeepsNewest(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obj := func(key string, age int) types.Object {
		return types.Object{Key: aws.String(key), LastModified: aws.Time(base.AddDate(0, 0, -age))}
	}
	fake := &fakeObjects{listed: []types.Object{
		obj("backups/a.sql.gz", 3), obj("backups/b.sql.gz", 0), obj("backups/c.sql.gz", 1), obj("backups/d.sql.gz", 2),
	}}
	archive := NewArchive(fake, "aacsb", zap.NewNop())

	require.NoError(t, archive.Rotate(context.Background(), "backups/", 2))
	assert.ElementsMatch(t, []string{"backups/d.sql.gz", "backups/a.sql.gz"}, fake.deleted)
}

func TestRotate_NothingToDo(t *testing.T) {
	fake := &fakeObjects{listed: []types.Object{{Key: aws.String("backups/a.sql.gz")}}}
	require.NoError(t, NewArchive(fake, "aacsb", zap.NewNop()).Rotate(context.Background(), "backups/", 4))
	assert.Empty(t, fake.deleted)
}
