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

package umbrella

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(ts, user, ip, action, domain, category string) string {
	return `"` + strings.Join([]string{ts, user, user, ip, ip, action, "1 (A)", "NOERROR", domain, category}, `","`) + `"`
}

func writeLogFile(t *testing.T, dir, name string, mod time.Time, lines ...string) {
	t.Helper()

	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	require.NoError(t, err)

	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestParseLogsSingleBlockedLine(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "2020-01-01")
	require.NoError(t, os.Mkdir(sub, 0o755))

	writeLogFile(t, sub, "a.csv.gz", time.Now(),
		logLine("2020-01-01 00:00:00", "alice", "10.0.0.1", "Blocked", "bad.example.com.", "Malware"))

	client := NewClient(Config{LogDir: root})

	stats, err := client.ParseLogs()
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Aggregate["Total"])
	assert.Equal(t, 1, stats.Aggregate["Malware"])

	require.Contains(t, stats.Users, "alice")
	alice := stats.Users["alice"]
	assert.Equal(t, 1, alice.Aggregate["Total"])
	assert.Equal(t, 1, alice.Aggregate["Malware"])
	require.Len(t, alice.Blocked, 1)
	assert.Equal(t, "bad.example.com.", alice.Blocked[0].Domain)
	assert.Equal(t, "10.0.0.1", alice.Blocked[0].InternalIP)
}

func TestParseLogsCountsEveryLineButOnlyBlockedCategories(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "2020-01-01")
	require.NoError(t, os.Mkdir(sub, 0o755))

	writeLogFile(t, sub, "a.csv.gz", time.Now(),
		logLine("2020-01-01 00:00:00", "alice", "10.0.0.1", "Allowed", "ok.example.com.", "Search Engines"),
		logLine("2020-01-01 00:00:01", "alice", "10.0.0.1", "Blocked", "bad.example.com.", "Malware"),
		logLine("2020-01-01 00:00:02", "bob", "10.0.0.2", "Allowed", "ok.example.com.", "News"))

	client := NewClient(Config{LogDir: root})

	stats, err := client.ParseLogs()
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Aggregate["Total"])
	assert.Equal(t, 1, stats.Aggregate["Malware"])
	assert.NotContains(t, stats.Aggregate, "Search Engines")
	assert.NotContains(t, stats.Aggregate, "News")

	assert.Equal(t, 2, stats.Users["alice"].Aggregate["Total"])
	assert.Equal(t, 1, stats.Users["bob"].Aggregate["Total"])
	assert.Empty(t, stats.Users["bob"].Blocked)
}

func TestParseLogsKeepsFiveMostRecentBlocked(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "2020-01-01")
	require.NoError(t, os.Mkdir(sub, 0o755))

	lines := make([]string, 0, 8)
	for _, domain := range []string{"d1.", "d2.", "d3.", "d4.", "d5.", "d6.", "d7.", "d8."} {
		lines = append(lines, logLine("2020-01-01 00:00:00", "alice", "10.0.0.1", "Blocked", domain, "Malware"))
	}

	writeLogFile(t, sub, "a.csv.gz", time.Now(), lines...)

	client := NewClient(Config{LogDir: root})

	stats, err := client.ParseLogs()
	require.NoError(t, err)

	alice := stats.Users["alice"]
	assert.Equal(t, 8, alice.Aggregate["Malware"])

	// Lines are read bottom-up, so the last written entries come first.
	require.Len(t, alice.Blocked, 5)
	assert.Equal(t, "d8.", alice.Blocked[0].Domain)
	assert.Equal(t, "d4.", alice.Blocked[4].Domain)
}

func TestParseLogsNewestFileWins(t *testing.T) {
	root := t.TempDir()

	oldDir := filepath.Join(root, "2020-01-01")
	newDir := filepath.Join(root, "2020-01-02")
	require.NoError(t, os.Mkdir(oldDir, 0o755))
	require.NoError(t, os.Mkdir(newDir, 0o755))

	base := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldDir, base, base))

	writeLogFile(t, oldDir, "old.csv.gz", base,
		logLine("2020-01-01 00:00:00", "alice", "10.0.0.1", "Blocked", "old.example.com.", "Malware"))
	writeLogFile(t, newDir, "new.csv.gz", base.Add(time.Hour),
		logLine("2020-01-02 00:00:00", "alice", "10.0.0.1", "Blocked", "new.example.com.", "Malware"))

	client := NewClient(Config{LogDir: root})

	stats, err := client.ParseLogs()
	require.NoError(t, err)

	blocked := stats.Users["alice"].Blocked
	require.Len(t, blocked, 2)
	assert.Equal(t, "new.example.com.", blocked[0].Domain)
	assert.Equal(t, "old.example.com.", blocked[1].Domain)
}

func TestParseLogsMissingDirectory(t *testing.T) {
	client := NewClient(Config{LogDir: filepath.Join(t.TempDir(), "absent")})

	_, err := client.ParseLogs()
	assert.Error(t, err)
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "50.0", formatPercent(1, 2))
	assert.Equal(t, "33.33", formatPercent(1, 3))
	assert.Equal(t, "100.0", formatPercent(3, 3))
	assert.Equal(t, "66.67", formatPercent(2, 3))
}
