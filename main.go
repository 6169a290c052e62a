package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/darkseed/dnsserver"
	"github.com/m-lab/darkseed/nodemanager"
	"github.com/m-lab/darkseed/restapi"
)

var (
	dnsAddress  = flag.String("dns-address", ":53", "Address and port for the DNS listeners")
	restAddress = flag.String("rest-address", ":8080", "Address and port for the REST API listener")
	crawlerPath = flag.String("crawler-path", "", "Directory containing crawler reachable-nodes snapshots")
	zone        = flag.String("zone", "", "Fully qualified zone this seeder answers for, e.g. seed.example.")
	refresh     = flag.Duration("refresh", nodemanager.DefaultRefreshInterval, "Interval between snapshot refreshes")
	ttl         = flag.Uint("ttl", 60, "TTL, in seconds, for emitted DNS records")
	promPort    = flag.String("prom", ":9090", "Prometheus metrics export address and port")
)

func init() {
	// Always prepend the filename and line number.
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func main() {
	flag.Parse()
	rtx.Must(flagx.ArgsFromEnv(flag.CommandLine), "Could not get args from environment")

	if *zone == "" {
		log.Fatal("-zone is required")
	}
	if *crawlerPath == "" {
		log.Fatal("-crawler-path is required")
	}
	_, err := os.Stat(*crawlerPath)
	rtx.Must(err, "Could not access crawler directory %s", *crawlerPath)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Expose prometheus metrics on a separate port.
	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	manager := &nodemanager.Manager{Dir: *crawlerPath, RefreshInterval: *refresh}
	go manager.Run(ctx)

	handler := dnsserver.NewHandler(*zone, manager, uint32(*ttl))
	dnsSrv := &dnsserver.Server{Addr: *dnsAddress, Handler: handler}
	go func() {
		rtx.Must(dnsSrv.ListenAndServe(ctx), "DNS server on %s failed", *dnsAddress)
	}()

	restSrv := restapi.NewServer(manager)
	httpSrv := &http.Server{Addr: *restAddress, Handler: restSrv.Handler()}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("REST API server on %s failed: %v", *restAddress, err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down.")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx)
}
