// Command diskquota-coordinatord runs the coordinator process: the
// launcher and its per-database workers, the gRPC ManagementService,
// and the §12 HTTP diagnostic views, optionally replicated over Raft
// for coordinator HA.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/api"
	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/config"
	"github.com/segmentdb/diskquota/pkg/coordhost"
	"github.com/segmentdb/diskquota/pkg/diagview"
	"github.com/segmentdb/diskquota/pkg/fanout"
	"github.com/segmentdb/diskquota/pkg/launcher"
	"github.com/segmentdb/diskquota/pkg/log"
	"github.com/segmentdb/diskquota/pkg/metrics"
	"github.com/segmentdb/diskquota/pkg/storage"
	"github.com/segmentdb/diskquota/pkg/types"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "diskquota-coordinatord",
	Short:   "diskquota coordinator: quota evaluation, blocklist computation and management API",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("diskquota-coordinatord version %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)
	rootCmd.AddCommand(runCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOutput})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the coordinator",
	RunE:  runCoordinator,
}

func init() {
	runCmd.Flags().String("config", "", "Path to YAML config file (defaults if omitted)")
	runCmd.Flags().String("data-dir", "./data", "Directory for the BoltDB store and Raft log")
	runCmd.Flags().String("grpc-addr", "127.0.0.1:17432", "ManagementService listen address")
	runCmd.Flags().String("http-addr", "127.0.0.1:17433", "Diagnostic views + metrics listen address")
	runCmd.Flags().String("segments", "", "Comma-separated segment-service addresses (host:port)")
	runCmd.Flags().String("segment-health-addrs", "", "Comma-separated segment /healthz addresses (host:port), same order as --segments; falls back to a bare TCP probe of --segments when omitted")
	runCmd.Flags().Bool("ha", false, "Run with Raft-backed coordinator HA")
	runCmd.Flags().String("node-id", "coordinator-1", "Raft node id (--ha only)")
	runCmd.Flags().String("raft-bind-addr", "127.0.0.1:17434", "Raft transport bind address (--ha only)")
}

func runCoordinator(cmd *cobra.Command, _ []string) error {
	llog := log.WithComponent("coordinatord")

	cfgPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	grpcAddr, _ := cmd.Flags().GetString("grpc-addr")
	httpAddr, _ := cmd.Flags().GetString("http-addr")
	segmentsFlag, _ := cmd.Flags().GetString("segments")
	segmentHealthAddrsFlag, _ := cmd.Flags().GetString("segment-health-addrs")
	ha, _ := cmd.Flags().GetBool("ha")
	nodeID, _ := cmd.Flags().GetString("node-id")
	raftBindAddr, _ := cmd.Flags().GetString("raft-bind-addr")

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store, err := storage.NewBoltStore(dataDir)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	segments, segConns, err := dialSegments(segmentsFlag, segmentHealthAddrsFlag)
	if err != nil {
		return fmt.Errorf("dial segments: %w", err)
	}
	defer closeAll(segConns)

	cat := catalog.NewStaticCatalog()

	l := launcher.New(store, cfg, cat, segments)

	var replicator api.Replicator = store
	var node *coordhost.Node
	if ha {
		node, err = coordhost.NewNode(coordhost.Config{NodeID: nodeID, BindAddr: raftBindAddr, DataDir: dataDir}, store)
		if err != nil {
			return fmt.Errorf("create raft node: %w", err)
		}
		if err := node.Bootstrap(); err != nil {
			return fmt.Errorf("bootstrap raft: %w", err)
		}
		replicator = node
		l.LeaderFunc = node.IsLeader
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := l.Start(ctx); err != nil {
		return fmt.Errorf("start launcher: %w", err)
	}

	collector := metrics.NewCollector(l, 15*time.Second)
	collector.Start()
	defer collector.Stop()
	metrics.MustRegisterAll(prometheus.DefaultRegisterer)

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	grpcSrv := grpc.NewServer()
	rpcpb.RegisterManagementServiceServer(grpcSrv, api.NewServer(replicator, store, l))
	go func() {
		llog.Info().Str("addr", grpcAddr).Msg("management API listening")
		if err := grpcSrv.Serve(lis); err != nil {
			llog.Error().Err(err).Msg("grpc server stopped")
		}
	}()
	defer grpcSrv.GracefulStop()

	diagSrv := diagview.NewServer(store, l)
	httpMux := diagSrv.Router()
	httpMux.Handle("/metrics", promhttp.Handler())
	httpServer := &http.Server{Addr: httpAddr, Handler: httpMux}
	go func() {
		llog.Info().Str("addr", httpAddr).Msg("diagnostic views listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			llog.Error().Err(err).Msg("http server stopped")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	llog.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	if node != nil {
		_ = node.Shutdown()
	}
	return nil
}

func dialSegments(segmentsFlag, healthAddrsFlag string) ([]fanout.Segment, []*grpc.ClientConn, error) {
	if segmentsFlag == "" {
		return nil, nil, nil
	}
	addrs := strings.Split(segmentsFlag, ",")

	var healthAddrs []string
	if healthAddrsFlag != "" {
		healthAddrs = strings.Split(healthAddrsFlag, ",")
		if len(healthAddrs) != len(addrs) {
			return nil, nil, fmt.Errorf("--segment-health-addrs has %d entries, want %d (one per --segments entry)", len(healthAddrs), len(addrs))
		}
	}

	segments := make([]fanout.Segment, 0, len(addrs))
	conns := make([]*grpc.ClientConn, 0, len(addrs))
	for i, addr := range addrs {
		addr = strings.TrimSpace(addr)
		conn, err := grpc.NewClient(addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithDefaultCallOptions(rpcpb.CallOption()),
		)
		if err != nil {
			closeAll(conns)
			return nil, nil, fmt.Errorf("dial segment %s: %w", addr, err)
		}
		conns = append(conns, conn)

		seg := fanout.Segment{ID: types.SegmentID(i), Client: rpcpb.NewSegmentServiceClient(conn), Address: addr}
		if healthAddrs != nil {
			seg.HealthURL = "http://" + strings.TrimSpace(healthAddrs[i]) + "/healthz"
		}
		segments = append(segments, seg)
	}
	return segments, conns, nil
}

func closeAll(conns []*grpc.ClientConn) {
	for _, c := range conns {
		_ = c.Close()
	}
}
