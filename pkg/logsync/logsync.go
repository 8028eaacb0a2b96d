/*
 * Copyright 2026 Cisco Systems, Inc. and its affiliates.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logsync mirrors the DNS-security log archives from their S3
// bucket into a local directory for the log reducer. It runs on its own
// schedule, outside the command path.
package logsync

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/logger"
)

const (
	defaultPrefix   = "dnslogs/"
	defaultInterval = 5 * time.Minute
	awsRegion       = "us-east-1"
)

// ObjectStore is the slice of the S3 API the syncer uses.
type ObjectStore interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config holds the mirror settings.
type Config struct {
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string

	// LocalDir is the mirror root for the bucket prefix.
	LocalDir string
	Prefix   string
	Interval time.Duration
}

// Syncer periodically mirrors the bucket prefix to the local directory.
type Syncer struct {
	config Config
	store  ObjectStore
	clock  Clock
	log    zerolog.Logger
}

// New creates a syncer backed by a real S3 client.
func New(ctx context.Context, config Config) (*Syncer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(awsRegion),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, "")))
	if err != nil {
		return nil, err
	}

	return NewWithStore(config, s3.NewFromConfig(awsCfg), realClock{}), nil
}

// NewWithStore creates a syncer over the given store and clock.
func NewWithStore(config Config, store ObjectStore, clock Clock) *Syncer {
	if config.Prefix == "" {
		config.Prefix = defaultPrefix
	}

	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}

	return &Syncer{
		config: config,
		store:  store,
		clock:  clock,
		log:    logger.WithComponent("logsync"),
	}
}

// Run mirrors once immediately, then on every tick until the context is
// canceled. Sync failures are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context) error {
	s.syncOnce(ctx)

	ticker := s.clock.Ticker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			s.syncOnce(ctx)
		}
	}
}

func (s *Syncer) syncOnce(ctx context.Context) {
	keys, err := s.listKeys(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list log objects")
		return
	}

	if err := s.download(ctx, keys); err != nil {
		s.log.Error().Err(err).Msg("Failed to download log objects")
	}

	if err := s.cleanup(keys); err != nil {
		s.log.Error().Err(err).Msg("Failed to clean up mirrored logs")
	}
}

func (s *Syncer) listKeys(ctx context.Context) (map[string]struct{}, error) {
	keys := map[string]struct{}{}

	paginator := s3.NewListObjectsV2Paginator(s.store, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(s.config.Prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}

		for _, object := range page.Contents {
			if object.Key != nil {
				keys[*object.Key] = struct{}{}
			}
		}
	}

	return keys, nil
}

// localPath maps an object key to its mirror location.
func (s *Syncer) localPath(key string) string {
	rel := strings.TrimPrefix(key, s.config.Prefix)
	return filepath.Join(s.config.LocalDir, filepath.FromSlash(rel))
}

// download fetches every object not yet mirrored. Archives are immutable
// once written, so an existing local file is never re-downloaded.
func (s *Syncer) download(ctx context.Context, keys map[string]struct{}) error {
	for key := range keys {
		if strings.HasSuffix(key, "/") {
			continue
		}

		path := s.localPath(key)

		if _, err := os.Stat(path); err == nil {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}

		if err := s.fetchObject(ctx, key, path); err != nil {
			return err
		}

		s.log.Debug().Str("key", key).Msg("Mirrored log object")
	}

	return nil
}

func (s *Syncer) fetchObject(ctx context.Context, key, path string) error {
	object, err := s.store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return err
	}
	defer func() { _ = object.Body.Close() }()

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, object.Body); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// cleanup deletes mirrored files whose object no longer exists, then
// removes directories left empty.
func (s *Syncer) cleanup(keys map[string]struct{}) error {
	entries, err := os.ReadDir(s.config.LocalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dir := filepath.Join(s.config.LocalDir, entry.Name())

		files, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		for _, file := range files {
			key := s.config.Prefix + entry.Name() + "/" + file.Name()
			if _, ok := keys[key]; ok {
				continue
			}

			path := filepath.Join(dir, file.Name())

			s.log.Debug().Str("path", path).Msg("Removing stale log file")

			if err := os.Remove(path); err != nil {
				return err
			}
		}

		remaining, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		if len(remaining) == 0 {
			if err := os.Remove(dir); err != nil {
				return err
			}
		}
	}

	return nil
}
