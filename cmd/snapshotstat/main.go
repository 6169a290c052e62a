// Main package in snapshotstat implements a command line tool for inspecting
// a crawler reachable-nodes snapshot directory without running the full
// darkseed server: it reports the newest snapshot found and the row counts
// that a Manager refresh would have produced.
package main

import (
	"flag"
	"log"

	"github.com/m-lab/go/rtx"

	"github.com/m-lab/darkseed/nodemanager"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var crawlerPath = flag.String("crawler-path", "", "Directory containing crawler reachable-nodes snapshots")

func main() {
	flag.Parse()
	if *crawlerPath == "" {
		log.Fatal("-crawler-path is required")
	}

	path, err := nodemanager.LatestSnapshot(*crawlerPath)
	rtx.Must(err, "Could not find a snapshot in %s", *crawlerPath)
	log.Printf("Newest snapshot: %s", path)

	nodes, stats, err := nodemanager.LoadSnapshot(path)
	rtx.Must(err, "Could not load snapshot %s", path)

	log.Printf("total=%d bad_port=%d incomplete_handshake=%d good=%d",
		stats.Total, stats.BadPort, stats.IncompleteHandshake, stats.Good)
	for net, count := range stats.ByNetwork {
		log.Printf("  %s: %d", net, count)
	}
	log.Printf("%d nodes would be published to the pool", len(nodes))
}
