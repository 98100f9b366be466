package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"aacsb-sync/models"
)

// S3Settings beschreibt einen S3-kompatiblen Endpunkt.
type S3Settings struct {
	URL    string
	Region string
	Key    string
	Secret string
}

// NewS3Client erstellt einen S3-Client für einen S3-kompatiblen Endpunkt.
func NewS3Client(ctx context.Context, st S3Settings) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(st.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(st.Key, st.Secret, "")),
	}
	if st.URL != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               st.URL,
					SigningRegion:     st.Region,
					HostnameImmutable: true,
				}, nil
			},
		)
		opts = append(opts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg), nil
}

// ObjectAPI ist der Teil des S3-Clients, den das Archiv benutzt.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Archive legt Importdateien, Laufprotokolle und Backups in einem Bucket ab.
type Archive struct {
	Client ObjectAPI
	Bucket string
	Logger *zap.Logger
}

func NewArchive(client ObjectAPI, bucket string, logger *zap.Logger) *Archive {
	return &Archive{Client: client, Bucket: bucket, Logger: logger}
}

// Put lädt data unter key hoch.
func (a *Archive) Put(ctx context.Context, key string, data []byte) error {
	_, err := a.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.Bucket, key, err)
	}
	return nil
}

// RunPrefix ist der Ablageort eines Abgleichlaufs: imports/<entity>/<run-id>/.
func RunPrefix(run *models.SyncRun) string {
	return path.Join("imports", run.Entity, run.RunID.String()) + "/"
}

// ArchiveImport legt die Quelldatei und das Laufprotokoll als JSON ab.
func (a *Archive) ArchiveImport(ctx context.Context, run *models.SyncRun, fileName string, source []byte) error {
	prefix := RunPrefix(run)
	if err := a.Put(ctx, prefix+path.Base(fileName), source); err != nil {
		return err
	}
	summary, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return err
	}
	if err := a.Put(ctx, prefix+"summary.json", summary); err != nil {
		return err
	}
	a.Logger.Info("Import archiviert", zap.String("bucket", a.Bucket), zap.String("prefix", prefix))
	return nil
}

// Rotate behält unter prefix nur die keep neuesten Objekte.
func (a *Archive) Rotate(ctx context.Context, prefix string, keep int) error {
	output, err := a.Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.Bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return err
	}

	objects := output.Contents
	if len(objects) <= keep {
		a.Logger.Info("Keine Rotation nötig", zap.Int("objects", len(objects)), zap.Int("keep", keep))
		return nil
	}

	sort.Slice(objects, func(i, j int) bool {
		return aws.ToTime(objects[i].LastModified).After(aws.ToTime(objects[j].LastModified))
	})

	for _, obj := range objects[keep:] {
		key := aws.ToString(obj.Key)
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		a.Logger.Info("Lösche altes Objekt", zap.String("key", key))
		_, err := a.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(a.Bucket),
			Key:    obj.Key,
		})
		if err != nil {
			a.Logger.Error("Fehler beim Löschen", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}
