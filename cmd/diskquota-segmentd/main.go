// Command diskquota-segmentd runs a segment-local process: it tracks
// active files for its assigned database, resolves them through the
// relation cache and host catalog, and serves fetch_table_stat (§4.3)
// over gRPC to the coordinator's fanout.
package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/segmentdb/diskquota/internal/rpcpb"
	"github.com/segmentdb/diskquota/pkg/activetable"
	"github.com/segmentdb/diskquota/pkg/catalog"
	"github.com/segmentdb/diskquota/pkg/config"
	"github.com/segmentdb/diskquota/pkg/log"
	"github.com/segmentdb/diskquota/pkg/probes"
	"github.com/segmentdb/diskquota/pkg/relcache"
	"github.com/segmentdb/diskquota/pkg/segmentrpc"
	"github.com/segmentdb/diskquota/pkg/types"
)

var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "diskquota-segmentd",
	Short:   "diskquota segment-local size service",
	Version: Version,
}

func init() {
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
	Short: "Run the segment service",
	RunE:  runSegment,
}

func init() {
	runCmd.Flags().String("grpc-addr", "127.0.0.1:17532", "SegmentService listen address")
	runCmd.Flags().String("http-addr", "127.0.0.1:17533", "/healthz listen address, probed by the coordinator's fanout liveness check")
	runCmd.Flags().String("data-dir", "./data", "Relation file data directory (relation_size_local)")
	runCmd.Flags().Int64("segment-id", 0, "This segment's id")
	runCmd.Flags().Int64("database-id", 0, "The database this segment process tracks")
	runCmd.Flags().String("role", "primary", "Segment role: primary, mirror, or coordinator")
	runCmd.Flags().Int("max-active-tables", 0, "Active-file map capacity (defaults to config's DiskquotaMaxActiveTables)")
	runCmd.Flags().Int("relation-cache-capacity", 0, "Relation cache LRU capacity (defaults to config's RelationCacheCapacity)")
}

func runSegment(cmd *cobra.Command, _ []string) error {
	llog := log.WithComponent("segmentd")

	grpcAddr, _ := cmd.Flags().GetString("grpc-addr")
	httpAddr, _ := cmd.Flags().GetString("http-addr")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	segID, _ := cmd.Flags().GetInt64("segment-id")
	databaseID, _ := cmd.Flags().GetInt64("database-id")
	roleFlag, _ := cmd.Flags().GetString("role")
	maxActiveTables, _ := cmd.Flags().GetInt("max-active-tables")
	relationCacheCapacity, _ := cmd.Flags().GetInt("relation-cache-capacity")

	cfg := config.Default()
	if maxActiveTables <= 0 {
		maxActiveTables = cfg.DiskquotaMaxActiveTables
	}
	if relationCacheCapacity <= 0 {
		relationCacheCapacity = cfg.RelationCacheCapacity
	}

	role, err := parseRole(roleFlag)
	if err != nil {
		return err
	}

	activeFiles := activetable.New(maxActiveTables)
	relCache, err := relcache.New(relationCacheCapacity)
	if err != nil {
		return fmt.Errorf("create relation cache: %w", err)
	}
	cat := catalog.NewStaticCatalog()

	srv := segmentrpc.NewServer(role, types.SegmentID(segID), types.DatabaseID(databaseID),
		activeFiles, relCache, cat, segmentrpc.StatSizeComputer(dataDir))

	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}
	grpcSrv := grpc.NewServer()
	rpcpb.RegisterSegmentServiceServer(grpcSrv, srv)

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() {
		llog.Info().Str("addr", httpAddr).Msg("healthz listening")
		if err := http.ListenAndServe(httpAddr, healthMux); err != nil {
			llog.Error().Err(err).Msg("healthz server stopped")
		}
	}()

	llog.Info().Str("addr", grpcAddr).Int64("segment_id", segID).Int64("database_id", databaseID).Msg("segment service listening")
	return grpcSrv.Serve(lis)
}

func parseRole(s string) (probes.Role, error) {
	switch s {
	case "primary":
		return probes.RolePrimarySegment, nil
	case "mirror":
		return probes.RoleMirror, nil
	case "coordinator":
		return probes.RoleCoordinator, nil
	default:
		return 0, fmt.Errorf("unknown role %q: expected primary, mirror, or coordinator", s)
	}
}
