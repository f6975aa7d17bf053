// 导入工具：将 GeoNames 数据两遍导入图谱存储，并提供建表与数据切分子命令
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"world-api/internal/gazetteer"
	"world-api/internal/graph"
	"world-api/internal/logger"
	"world-api/internal/utils"
)

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.L().Error("world_ingest_error", "err", err)
		stop()
		logger.Close()
		os.Exit(1)
	}
}

func envDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return def
}

func newRootCmd() *cobra.Command {
	var (
		files   string
		workers int
		driver  string
		report  bool
	)
	root := &cobra.Command{
		Use:           "world-ingest",
		Short:         "Load a GeoNames gazetteer into the place graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd.Context(), files, workers, driver, report)
		},
	}
	f := root.Flags()
	f.StringVar(&files, "files", envDefault("WORLD_FILES", filepath.Join("data", "worldFiles")), "gazetteer file or directory")
	f.IntVar(&workers, "workers", envInt("INGEST_WORKERS", 4), "parallel record workers per pass")
	f.StringVar(&driver, "driver", envDefault("STORE_DRIVER", "postgres"), "store driver: postgres or memory (dry run)")
	f.BoolVar(&report, "json", false, "print the ingest report as JSON")

	root.AddCommand(newMigrateCmd(), newSplitCmd())
	return root
}

func runIngest(ctx context.Context, files string, workers int, driver string, asJSON bool) error {
	l := logger.L()
	src, err := gazetteer.Open(files)
	if err != nil {
		return err
	}
	l.Info("ingest_source", "path", files, "files", len(src.Files()))

	gs, err := utils.OpenGraph(ctx, driver)
	if err != nil {
		return err
	}
	defer gs.Close()

	rep, err := graph.NewBuilder(gs.Graph, graph.WithWorkers(workers)).Run(ctx, src)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Printf("vertices: inserted=%d duplicates=%d malformed=%d ignored=%d errors=%d\n",
		rep.Vertices.Inserted, rep.Vertices.Duplicates, rep.Vertices.Malformed, rep.Vertices.Ignored, rep.Vertices.StoreErrors)
	fmt.Printf("edges:    inserted=%d duplicates=%d fallbacks=%d unresolved=%d child_missing=%d errors=%d\n",
		rep.Edges.Inserted, rep.Edges.Duplicates, rep.Edges.Fallbacks, rep.Edges.ParentUnresolved, rep.Edges.ChildMissing, rep.Edges.StoreErrors)
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create level tables, the edge table and indexes in PostgreSQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			gs, err := utils.OpenGraph(cmd.Context(), "postgres")
			if err != nil {
				return err
			}
			logger.L().Info("schema_ok")
			return gs.Close()
		},
	}
}

func newSplitCmd() *cobra.Command {
	var (
		in      string
		out     string
		perFile int
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Filter allCountries.txt to administrative records and split it into chunk files",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := gazetteer.Open(in)
			if err != nil {
				return err
			}
			st, err := gazetteer.Split(cmd.Context(), src, out, perFile)
			if err != nil {
				return err
			}
			logger.L().Info("split_done", "read", st.Read, "kept", st.Kept, "dropped", st.Dropped, "files", len(st.Files), "dir", out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in, "in", "allCountries.txt", "GeoNames dump")
	f.StringVar(&out, "out", envDefault("WORLD_FILES", filepath.Join("data", "worldFiles")), "output directory")
	f.IntVar(&perFile, "lines", gazetteer.LinesPerFile, "lines per output file")
	return cmd
}
