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

// Package umbrella is the DNS-security integration. There is no relevant
// reporting API, so stats are reduced from the locally mirrored S3 log
// archives instead.
package umbrella

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/meraki/spark-operations-bot/pkg/logger"
	"github.com/meraki/spark-operations-bot/pkg/models"
)

const logFieldCount = 10

// Config holds the DNS-security integration settings.
type Config struct {
	LogDir            string
	OverrideDashboard string
}

// Client reduces mirrored DNS logs into aggregate and per-user stats.
type Client struct {
	config Config
	log    zerolog.Logger
}

// NewClient creates a DNS log reducer.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		log:    logger.WithComponent("umbrella"),
	}
}

// sortedByModTime lists the directory entries selected by keep, newest
// first. Log archives are written append-only in dated batches, so file
// age approximates event recency without parsing timestamps.
func sortedByModTime(dir string, keep func(os.FileInfo) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type dated struct {
		path string
		mod  time.Time
	}

	selected := make([]dated, 0, len(entries))

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}

		if !keep(info) {
			continue
		}

		selected = append(selected, dated{path: filepath.Join(dir, entry.Name()), mod: info.ModTime()})
	}

	sort.Slice(selected, func(i, j int) bool {
		return selected[i].mod.After(selected[j].mod)
	})

	paths := make([]string, 0, len(selected))
	for _, entry := range selected {
		paths = append(paths, entry.path)
	}

	return paths, nil
}

func readLogFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer func() { _ = gz.Close() }()

	data, err := io.ReadAll(gz)
	if err != nil {
		return nil, err
	}

	return strings.Split(string(data), "\n"), nil
}

// ParseLogs reduces the mirrored log tree into aggregate and per-user
// stats. Subdirectories and files are walked newest first, and lines
// within each file are read bottom-up, so a user's retained blocked
// entries are the most recent ones seen.
func (c *Client) ParseLogs() (*models.DNSStats, error) {
	stats := &models.DNSStats{
		Aggregate: map[string]int{"Total": 0},
		Users:     map[string]*models.UserDNSStats{},
	}

	dirs, err := sortedByModTime(c.config.LogDir, os.FileInfo.IsDir)
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		files, err := sortedByModTime(dir, func(info os.FileInfo) bool { return info.Mode().IsRegular() })
		if err != nil {
			return nil, err
		}

		for _, path := range files {
			lines, err := readLogFile(path)
			if err != nil {
				return nil, err
			}

			for i := len(lines) - 1; i >= 0; i-- {
				c.reduceLine(stats, lines[i])
			}
		}
	}

	return stats, nil
}

// reduceLine folds one quoted log line into the stats. Line shape:
// "ts","user","user","int-ip","ext-ip","action","qtype","rcode","domain","category"
func (c *Client) reduceLine(stats *models.DNSStats, line string) {
	if line == "" {
		return
	}

	if len(line) < 2 {
		return
	}

	fields := strings.Split(line[1:len(line)-1], `","`)
	if len(fields) < logFieldCount {
		c.log.Warn().Str("line", line).Msg("Skipping malformed log line")
		return
	}

	user := fields[1]
	action := fields[5]
	category := fields[9]

	userStats, ok := stats.Users[user]
	if !ok {
		userStats = &models.UserDNSStats{
			Blocked:   []models.BlockedRequest{},
			Aggregate: map[string]int{"Total": 0},
		}
		stats.Users[user] = userStats
	}

	if action == "Blocked" {
		stats.Aggregate[category]++
		userStats.Aggregate[category]++

		if len(userStats.Blocked) < 5 {
			userStats.Blocked = append(userStats.Blocked, models.BlockedRequest{
				Timestamp:  fields[0],
				InternalIP: fields[3],
				Domain:     fields[8],
				Categories: category,
			})
		}
	}

	stats.Aggregate["Total"]++
	userStats.Aggregate["Total"]++
}

// UserStats looks up one user's stats by exact log-identity match. An
// unknown user yields an empty record.
func UserStats(stats *models.DNSStats, identifier string) *models.UserDNSStats {
	if stats != nil && identifier != "" {
		if user, ok := stats.Users[identifier]; ok {
			return user
		}
	}

	return &models.UserDNSStats{
		Blocked:   []models.BlockedRequest{},
		Aggregate: map[string]int{"Total": 0},
	}
}
