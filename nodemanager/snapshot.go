package nodemanager

import (
	"compress/bzip2"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/m-lab/darkseed/address"
)

// snapshotGlob matches the crawler's reachable-nodes snapshot files.
const snapshotGlob = "*_reachable_nodes.csv.bz2"

// snapshotTimestampFormat is the layout of the leading timestamp in a
// snapshot file name, e.g. "2024-01-02T15-04-05Z_reachable_nodes.csv.bz2".
const snapshotTimestampFormat = "2006-01-02T15-04-05Z"

// nodeRow is a single CSV row as produced by the crawler.
type nodeRow struct {
	Host                string `csv:"host"`
	Port                int    `csv:"port"`
	Network             string `csv:"network"`
	Services            uint64 `csv:"services"`
	HandshakeSuccessful string `csv:"handshake_successful"`
}

// latestSnapshot returns the path of the newest snapshot file in dir, chosen
// by the timestamp encoded in its file name. It is a recoverable error if
// dir contains no matching files.
func latestSnapshot(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, snapshotGlob))
	if err != nil {
		return "", fmt.Errorf("nodemanager: globbing %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("nodemanager: no crawler snapshot data found in %s", dir)
	}

	var best string
	var bestTime time.Time
	for _, m := range matches {
		ts, err := snapshotTimestamp(m)
		if err != nil {
			continue
		}
		if best == "" || ts.After(bestTime) {
			best, bestTime = m, ts
		}
	}
	if best == "" {
		return "", fmt.Errorf("nodemanager: no parseable snapshot timestamps in %s", dir)
	}
	return best, nil
}

func snapshotTimestamp(path string) (time.Time, error) {
	base := filepath.Base(path)
	prefix, _, ok := strings.Cut(base, "_")
	if !ok {
		return time.Time{}, fmt.Errorf("nodemanager: malformed snapshot file name: %s", base)
	}
	return time.Parse(snapshotTimestampFormat, prefix)
}

// RefreshStats tallies row outcomes for a single snapshot load, logged and
// exported as metrics after each refresh.
type RefreshStats struct {
	Total               int
	BadPort             int
	IncompleteHandshake int
	Good                int
	ByNetwork           map[address.NetworkType]int
}

// LatestSnapshot returns the path of the newest snapshot file in dir. It is
// exported for use by standalone tooling (see cmd/snapshotstat) that wants
// to inspect a crawler directory without running the full Manager.
func LatestSnapshot(dir string) (string, error) {
	return latestSnapshot(dir)
}

// LoadSnapshot reads, decompresses, and parses a crawler snapshot file into
// a list of Nodes that use their network's canonical port and completed the
// handshake, plus per-category counts for logging and metrics. The services
// bitmask is recorded on each Node but not used for filtering. A row whose
// textually-derived network type disagrees with its CSV "network" column
// makes the whole load fail with an error: it indicates snapshot
// corruption, not an ordinary filtering decision.
func LoadSnapshot(path string) ([]Node, RefreshStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, RefreshStats{}, fmt.Errorf("nodemanager: opening %s: %w", path, err)
	}
	defer f.Close()

	var rows []*nodeRow
	bz := bzip2.NewReader(f)
	if err := gocsv.Unmarshal(bz, &rows); err != nil {
		return nil, RefreshStats{}, fmt.Errorf("nodemanager: parsing %s: %w", path, err)
	}

	stats := RefreshStats{ByNetwork: make(map[address.NetworkType]int)}
	var nodes []Node
	for _, row := range rows {
		stats.Total++

		expectedPort := 8333
		if row.Network == "i2p" {
			expectedPort = 0
		}
		if row.Port != expectedPort {
			stats.BadPort++
			continue
		}

		handshake := strings.EqualFold(row.HandshakeSuccessful, "true")
		if !handshake {
			stats.IncompleteHandshake++
			continue
		}

		addr, err := address.New(row.Host)
		if err != nil {
			return nil, RefreshStats{}, fmt.Errorf("nodemanager: snapshot %s corrupt: invalid address %q: %w", path, row.Host, err)
		}
		if addr.Network().String() != row.Network {
			return nil, RefreshStats{}, fmt.Errorf(
				"nodemanager: snapshot %s corrupt: address %q classifies as %s, csv says %s",
				path, row.Host, addr.Network(), row.Network)
		}

		node := Node{Address: addr, Port: row.Port, Services: Services(row.Services)}
		stats.Good++
		stats.ByNetwork[addr.Network()]++
		nodes = append(nodes, node)
	}
	return nodes, stats, nil
}
