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

package logsync

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	getCalls []string
}

func (f *fakeStore) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}

	for key := range f.objects {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}

	return out, nil
}

func (f *fakeStore) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(params.Key)
	f.getCalls = append(f.getCalls, key)

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(f.objects[key])),
	}, nil
}

type fakeClock struct {
	ticks chan time.Time
}

func (f *fakeClock) Ticker(time.Duration) Ticker { return &fakeTicker{ticks: f.ticks} }

type fakeTicker struct {
	ticks chan time.Time
}

func (f *fakeTicker) Chan() <-chan time.Time { return f.ticks }
func (f *fakeTicker) Stop()                  {}

func TestSyncOnceMirrorsAndSkipsExisting(t *testing.T) {
	local := t.TempDir()

	store := &fakeStore{objects: map[string][]byte{
		"dnslogs/2020-01-01/a.csv.gz": []byte("one"),
		"dnslogs/2020-01-01/b.csv.gz": []byte("two"),
	}}

	syncer := NewWithStore(Config{Bucket: "logs", LocalDir: local}, store, &fakeClock{})

	syncer.syncOnce(context.Background())

	data, err := os.ReadFile(filepath.Join(local, "2020-01-01", "a.csv.gz"))
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	// Existing files are not fetched again.
	store.getCalls = nil
	syncer.syncOnce(context.Background())
	assert.Empty(t, store.getCalls)
}

func TestSyncOnceCleansUpDeletedObjects(t *testing.T) {
	local := t.TempDir()

	staleDir := filepath.Join(local, "2019-12-31")
	require.NoError(t, os.Mkdir(staleDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staleDir, "stale.csv.gz"), []byte("old"), 0o644))

	store := &fakeStore{objects: map[string][]byte{
		"dnslogs/2020-01-01/a.csv.gz": []byte("one"),
	}}

	syncer := NewWithStore(Config{Bucket: "logs", LocalDir: local}, store, &fakeClock{})

	syncer.syncOnce(context.Background())

	_, err := os.Stat(filepath.Join(staleDir, "stale.csv.gz"))
	assert.True(t, os.IsNotExist(err))

	// Emptied directories are removed too.
	_, err = os.Stat(staleDir)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(local, "2020-01-01", "a.csv.gz"))
	assert.NoError(t, err)
}

func TestRunSyncsImmediatelyAndOnTicks(t *testing.T) {
	local := t.TempDir()

	store := &fakeStore{objects: map[string][]byte{
		"dnslogs/2020-01-01/a.csv.gz": []byte("one"),
	}}

	clock := &fakeClock{ticks: make(chan time.Time)}
	syncer := NewWithStore(Config{Bucket: "logs", LocalDir: local}, store, clock)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- syncer.Run(ctx) }()

	// The first mirror happens before any tick.
	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(local, "2020-01-01", "a.csv.gz"))
		return err == nil
	}, time.Second, 10*time.Millisecond)

	store.mu.Lock()
	store.objects["dnslogs/2020-01-02/b.csv.gz"] = []byte("two")
	store.mu.Unlock()

	clock.ticks <- time.Now()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(local, "2020-01-02", "b.csv.gz"))
		return err == nil
	}, time.Second, 10*time.Millisecond)

	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}
