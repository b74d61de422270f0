// Package export writes wallet snapshots to S3-compatible object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mywallet-io/mywallet/internal/config"
	"github.com/mywallet-io/mywallet/internal/ledger"
	"github.com/mywallet-io/mywallet/internal/models"
	"github.com/shopspring/decimal"
)

var ErrNotConfigured = errors.New("export bucket is not configured")

type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Client uploads snapshots and hands back a presigned download URL.
type Client struct {
	objects    objectAPI
	presigner  presignAPI
	bucket     string
	presignTTL time.Duration
	now        func() time.Time
}

// Result tells the caller where the snapshot went.
type Result struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type snapshot struct {
	UserID     string               `json:"userId"`
	ExportedAt time.Time            `json:"exportedAt"`
	Balance    decimal.Decimal      `json:"balance"`
	Entries    []models.Transaction `json:"depositsArray"`
}

// NewClient builds a client from cfg. A custom endpoint switches to
// path-style addressing, which MinIO and most S3 clones expect.
func NewClient(ctx context.Context, cfg config.ExportConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		objects:    client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		presignTTL: cfg.PresignTTL,
		now:        time.Now,
	}, nil
}

// Export uploads the wallet of userID as a JSON document.
func (c *Client) Export(ctx context.Context, userID string, w *ledger.Wallet) (*Result, error) {
	at := c.now().UTC()
	key := objectKey(userID, at)

	body, err := encodeSnapshot(userID, at, w)
	if err != nil {
		return nil, err
	}

	_, err = c.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", key, err)
	}

	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		if c.presignTTL > 0 {
			opts.Expires = c.presignTTL
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return &Result{Key: key, URL: req.URL}, nil
}

func objectKey(userID string, at time.Time) string {
	return fmt.Sprintf("wallets/%s/%s.json", userID, at.Format("20060102T150405Z"))
}

func encodeSnapshot(userID string, at time.Time, w *ledger.Wallet) ([]byte, error) {
	entries := w.Entries
	if entries == nil {
		entries = []models.Transaction{}
	}
	body, err := json.MarshalIndent(snapshot{
		UserID:     userID,
		ExportedAt: at,
		Balance:    w.Balance,
		Entries:    entries,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return body, nil
}
