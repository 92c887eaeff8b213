package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	// PublicBaseURL is optional. When set, stored proofs carry a public URL.
	PublicBaseURL string
}

// Enabled reports whether every credential needed to reach the bucket is set.
func (c R2Config) Enabled() bool {
	return c.AccountID != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" && c.BucketName != ""
}

// R2ProofStore stores proofs in a Cloudflare R2 bucket through the S3 API.
type R2ProofStore struct {
	s3Client      *s3.Client
	bucketName    string
	publicBaseURL string
}

func NewR2ProofStore(ctx context.Context, cfg R2Config) (*R2ProofStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("invalid Cloudflare R2 configuration: account, keys and bucket are required")
	}

	sdkCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2ProofStore{
		s3Client:      client,
		bucketName:    cfg.BucketName,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

func (s *R2ProofStore) Put(ctx context.Context, contentType string, r io.Reader) (*Proof, error) {
	data, ref, err := readProof(r)
	if err != nil {
		return nil, err
	}
	proof := &Proof{Ref: ref, ContentType: contentType, Size: int64(len(data)), URL: s.publicURL(ref)}

	exists, err := s.Exists(ctx, ref)
	if err != nil {
		return nil, err
	}
	if exists {
		return proof, nil
	}

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(objectKey(ref)),
		Body:          newReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload proof to R2 (key: %s): %w", objectKey(ref), err)
	}
	return proof, nil
}

func (s *R2ProofStore) Get(ctx context.Context, ref string) (io.ReadCloser, *Proof, error) {
	if !ValidRef(ref) {
		return nil, nil, ErrProofNotFound
	}
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey(ref)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrProofNotFound
		}
		return nil, nil, fmt.Errorf("failed to fetch proof from R2 (key: %s): %w", objectKey(ref), err)
	}
	proof := &Proof{Ref: ref, ContentType: aws.ToString(out.ContentType), Size: aws.ToInt64(out.ContentLength), URL: s.publicURL(ref)}
	return out.Body, proof, nil
}

func (s *R2ProofStore) Exists(ctx context.Context, ref string) (bool, error) {
	if !ValidRef(ref) {
		return false, nil
	}
	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey(ref)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check proof in R2 (key: %s): %w", objectKey(ref), err)
	}
	return true, nil
}

func (s *R2ProofStore) publicURL(ref string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/" + objectKey(ref)
}

// isNotFound recognizes the missing-object codes R2 returns for HEAD and GET.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}
