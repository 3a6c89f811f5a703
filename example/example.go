package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	tieredcache "github.com/samber/tiered-cache"
	"github.com/samber/tiered-cache/pkg/subcache"
)

func main() {
	// Create a 1MB TLFU engine with Prometheus metrics enabled: 10% probationary,
	// 90% ghost, promote to main on first repeat hit.
	cache := tieredcache.NewTLFU(1<<20, "probationary-size-ratio=0.10,ghost-size-ratio=0.90,promote-on-hit=1",
		tieredcache.WithMetrics("example-tlfu"))

	err := prometheus.Register(cache)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}
	defer prometheus.Unregister(cache)

	fmt.Println("cache name:", cache.Name())

	// First access: miss, admitted into probationary.
	req := &subcache.Request{ObjID: 1, ObjSize: 4096}
	if cache.Get(req) {
		fmt.Println("unexpected hit on first access")
	}

	// Second access: hit, promoted to main under promote-on-hit.
	if cache.Get(req) {
		fmt.Println("promoted to main on second access")
	}

	fmt.Printf("occupied bytes: %d / %d\n", cache.OccupiedBytes(), uint64(1<<20))

	// Set up HTTP server to expose metrics.
	http.Handle("/metrics", promhttp.Handler())

	fmt.Println("Starting server on :8080")
	fmt.Println("Metrics available at http://localhost:8080/metrics")

	log.Fatal(http.ListenAndServe(":8080", nil))
}
