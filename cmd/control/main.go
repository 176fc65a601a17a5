package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"georoute/internal/route"
)

var (
	serverAddr = flag.String("server", "localhost:5001", "Server address (ip:port)")
	command    = flag.String("cmd", "", "Command to execute: ping, route, stream, topology, threshold, survey")

	// route / stream / survey 参数
	source = flag.Int("source", -1, "Source node ID")
	dest   = flag.Int("dest", -1, "Destination node ID")

	// threshold 参数
	threshold = flag.Float64("threshold", 0, "New neighbor distance threshold")
)

func main() {
	flag.Parse()

	if *command == "" {
		fmt.Fprintf(os.Stderr, "Error: -cmd is required\n")
		flag.Usage()
		os.Exit(1)
	}

	client, err := route.DialRouteService(*serverAddr)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch *command {
	case "ping":
		doPing(ctx, client)
	case "route":
		doRoute(ctx, client)
	case "stream":
		doStream(ctx, client)
	case "topology":
		doTopology(ctx, client)
	case "threshold":
		doThreshold(ctx, client)
	case "survey":
		doSurvey(ctx, client)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		fmt.Fprintf(os.Stderr, "Available commands: ping, route, stream, topology, threshold, survey\n")
		os.Exit(1)
	}
}

func requirePair() {
	if *source < 0 || *dest < 0 {
		fmt.Fprintf(os.Stderr, "Error: -source and -dest are required for %s command\n", *command)
		os.Exit(1)
	}
}

func printRoute(resp *route.RouteResponse) {
	if resp.Delivered() {
		fmt.Printf("✓ Delivered %d -> %d in %d hops\n", resp.Source, resp.Destination, len(resp.Hops))
	} else {
		fmt.Printf("✗ Failed %d -> %d: %s\n", resp.Source, resp.Destination, resp.Reason)
	}
	fmt.Printf("  Path: %v\n", resp.Path)
}

func doPing(ctx context.Context, client *route.RouteClient) {
	fmt.Printf("Sending ping to %s...\n", *serverAddr)

	resp, err := client.Ping(ctx, "ping")
	if err != nil {
		log.Fatalf("Ping failed: %v", err)
	}

	fmt.Printf("✓ %s\n", resp.Msg)
}

func doRoute(ctx context.Context, client *route.RouteClient) {
	requirePair()

	resp, err := client.Route(ctx, *source, *dest)
	if err != nil {
		log.Fatalf("Route failed: %v", err)
	}
	printRoute(resp)
}

func doStream(ctx context.Context, client *route.RouteClient) {
	requirePair()

	fmt.Printf("Streaming route %d -> %d...\n", *source, *dest)
	resp, err := client.StreamRoute(ctx, *source, *dest, func(hop *route.HopMessage) {
		fmt.Printf("  hop %d: %d -> %d (remaining %.2f)\n", hop.Seq, hop.From, hop.To, hop.Remaining)
	})
	if err != nil {
		log.Fatalf("StreamRoute failed: %v", err)
	}
	printRoute(resp)
}

func doTopology(ctx context.Context, client *route.RouteClient) {
	resp, err := client.Topology(ctx)
	if err != nil {
		log.Fatalf("Topology failed: %v", err)
	}

	fmt.Printf("Run %s: %d nodes, %d links, threshold %.1f (generation %d)\n",
		resp.RunID, len(resp.Nodes), resp.Links, resp.Threshold, resp.Generation)
	for _, n := range resp.Nodes {
		fmt.Printf("  %3d (%6.1f, %6.1f) efficiency=%.2f neighbors=%v\n", n.ID, n.X, n.Y, n.Efficiency, n.Neighbors)
	}
}

func doThreshold(ctx context.Context, client *route.RouteClient) {
	if *threshold <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -threshold must be positive\n")
		os.Exit(1)
	}

	resp, err := client.SetThreshold(ctx, *threshold)
	if err != nil {
		log.Fatalf("SetThreshold failed: %v", err)
	}
	fmt.Printf("✓ Threshold %.1f, %d links (generation %d)\n", resp.Threshold, resp.Links, resp.Generation)
}

func doSurvey(ctx context.Context, client *route.RouteClient) {
	if *source < 0 {
		fmt.Fprintf(os.Stderr, "Error: -source is required for survey command\n")
		os.Exit(1)
	}

	resp, err := client.Survey(ctx, *source)
	if err != nil {
		log.Fatalf("Survey failed: %v", err)
	}

	fmt.Printf("Survey from %d: delivery ratio %.2f\n", resp.Source, resp.DeliveryRatio)
	fmt.Printf("%-12s %-8s %-5s %s\n", "Destination", "NextHop", "Hops", "Status")
	for _, e := range resp.Entries {
		nextHop := "-"
		if e.NextHop >= 0 {
			nextHop = fmt.Sprint(e.NextHop)
		}
		fmt.Printf("%-12d %-8s %-5d %s\n", e.Destination, nextHop, e.Hops, e.Status)
	}
}
