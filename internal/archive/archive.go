// Package archive stores JSON snapshots of tag stores in an S3-compatible
// bucket, one object per track at tracks/<id>.json.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/metadata"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectAPI {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// objectAPI is the part of *s3.Client the archiver uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Settings locate the bucket and hold static credentials.
type Settings struct {
	Bucket       string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// Archiver puts and gets track snapshots.
type Archiver struct {
	client objectAPI
	bucket string
}

// New builds an Archiver with an S3 client for s. Path-style addressing is
// used so MinIO and similar servers work without DNS setup.
func New(ctx context.Context, s Settings) (*Archiver, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &Archiver{client: client, bucket: s.Bucket}, nil
}

// ObjectKey returns the object key of a track snapshot.
func ObjectKey(id string) string {
	return "tracks/" + id + ".json"
}

// Put uploads the snapshot of m under id, replacing any previous one.
func (a *Archiver) Put(ctx context.Context, id string, m *metadata.Metadata) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode track[%s]: %w", id, err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ObjectKey(id)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put track[%s]: %w", id, err)
	}
	return nil
}

// Get downloads the snapshot stored under id. A missing object yields
// common.ErrorNotFound.
func (a *Archiver) Get(ctx context.Context, id string) (*metadata.Metadata, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ObjectKey(id)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("archived track[%s]: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("failed to get track[%s]: %w", id, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read track[%s]: %w", id, err)
	}

	m := metadata.New()
	if err := json.Unmarshal(body, m); err != nil {
		return nil, fmt.Errorf("failed to decode track[%s]: %w", id, err)
	}
	return m, nil
}
