// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package reftable

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Source is a ranged-read BlockSource over an object in an S3-compatible
// bucket (§4.11): a reftable stack living in object storage.
type s3Source struct {
	ctx    context.Context
	client *s3.Client
	bucket string
	key    string
	size   int64
}

// OpenS3Source opens bucket/key as a BlockSource, issuing a HeadObject call
// to learn its size up front.
func OpenS3Source(ctx context.Context, client *s3.Client, bucket, key string) (BlockSource, error) {
	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, fmt.Errorf("reftable: head s3://%s/%s: %w", bucket, key, err)
	}
	size := int64(0)
	if head.ContentLength != nil {
		size = *head.ContentLength
	}
	return &s3Source{ctx: ctx, client: client, bucket: bucket, key: key, size: size}, nil
}

func (s *s3Source) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	rng := fmt.Sprintf("bytes=%d-%d", off, off+int64(len(p))-1)
	out, err := s.client.GetObject(s.ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Range:  aws.String(rng),
	})
	if err != nil {
		return 0, fmt.Errorf("reftable: get s3://%s/%s range %s: %w", s.bucket, s.key, rng, err)
	}
	defer out.Body.Close()
	n, err := io.ReadFull(out.Body, p)
	if err == io.ErrUnexpectedEOF {
		return n, io.EOF
	}
	return n, err
}

func (s *s3Source) Size() (int64, error) {
	return s.size, nil
}

func (s *s3Source) Close() error {
	return nil
}
