package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/rawbytedev/flatmem"
	"github.com/rawbytedev/flatmem/pkg/alloc"
	"github.com/rawbytedev/flatmem/pkg/cow"
	"github.com/rawbytedev/flatmem/pkg/lebytes"
	"github.com/spf13/cobra"
)

type sample struct {
	Val      []string
	Mod      []int8
	Integers []int16
	Float3   []float32
	Float6   []float64
}

var sampleValue = sample{
	Val: []string{"azerty", "hello", "world", "random"},
	Mod: []int8{12, 10, 13, 0}, Integers: []int16{100, 250, 300},
	Float3: []float32{12.13, 16.23, 75.1}, Float6: []float64{100.5, 165.63, 153.5},
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Run an allocation workload and write a heap profile",
		Long: `profile builds arrays, drains them through move-out iterators and
round-trips records through the little-endian codec, all on the configured
allocator. It then writes a heap profile, and with --serve keeps net/http/pprof
listening until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProfile(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
	cmd.Flags().Int("iterations", 0, "workload iterations (default 10000)")
	cmd.Flags().Int("elements", 0, "elements per array (default 256)")
	cmd.Flags().String("output", "", `heap profile path, "-" to skip (default mem.prof)`)
	cmd.Flags().String("serve", "", "address to serve net/http/pprof on after the run")
	return cmd
}

// profileReport summarises one workload run.
type profileReport struct {
	Iterations int
	Checksum   uint64
	Elapsed    time.Duration
	Stats      *alloc.Stats
}

func workload(ctx context.Context, a alloc.Allocator, iterations, elements int) (profileReport, error) {
	rep := profileReport{}
	codec := lebytes.NewCodec(lebytes.Options{Allocator: a, ZeroCopy: true})
	start := time.Now()
	for i := range iterations {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
		}

		arr := flatmem.NewIn[uint64](a, elements)
		for j := range elements {
			arr.Set(j, uint64(i+j))
		}
		it := arr.IntoIter()
		it.AdvanceBy(elements / 4)
		chunk, _ := it.NextChunk(elements / 4)
		for _, v := range chunk {
			rep.Checksum += v
		}
		if v, ok := it.NextBack(); ok {
			rep.Checksum += v
		}
		it.Release()

		data, err := codec.Encode(sampleValue)
		if err != nil {
			return rep, err
		}
		var out sample
		if err := codec.Decode(data.Slice(), &out); err != nil {
			data.Release()
			return rep, err
		}
		rep.Checksum += cow.HashBytes(cow.Borrow(data.Slice()).SliceCow(cow.From(1)))
		data.Release()
		rep.Iterations++
	}
	rep.Elapsed = time.Since(start)
	if m, ok := a.(*alloc.Metered); ok {
		stats := m.Stats()
		rep.Stats = &stats
	}
	return rep, nil
}

func runProfile(ctx context.Context, a *app, out io.Writer) error {
	pc := a.cfg.Profile
	if pc.Iterations < 0 || pc.Elements < 0 {
		return errors.New("iterations and elements must not be negative")
	}
	runtime.MemProfileRate = 1

	a.logger.Info("profiling", "allocator", alloc.Name(a.alloc), "iterations", pc.Iterations, "elements", pc.Elements)
	rep, err := workload(ctx, a.alloc, pc.Iterations, pc.Elements)
	if err != nil {
		return fmt.Errorf("workload stopped after %d iterations: %w", rep.Iterations, err)
	}

	fmt.Fprintf(out, "allocator   %s\n", alloc.Name(a.alloc))
	fmt.Fprintf(out, "iterations  %d\n", rep.Iterations)
	fmt.Fprintf(out, "elapsed     %s\n", rep.Elapsed)
	fmt.Fprintf(out, "checksum    %#x\n", rep.Checksum)
	if s := rep.Stats; s != nil {
		fmt.Fprintf(out, "allocs      %d (%d bytes)\n", s.Allocs, s.BytesAllocated)
		fmt.Fprintf(out, "frees       %d (%d bytes)\n", s.Frees, s.BytesFreed)
		fmt.Fprintf(out, "in use      %d\n", s.InUse)
	}

	if pc.Output != "-" {
		if err := writeHeapProfile(pc.Output); err != nil {
			return err
		}
		a.logger.Info("heap profile written", "path", pc.Output)
	}
	if pc.Serve != "" {
		return servePprof(ctx, a, pc.Serve)
	}
	return nil
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if err := pprof.WriteHeapProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	return f.Close()
}

// servePprof exposes the default mux, where net/http/pprof registers, until
// ctx is cancelled.
func servePprof(ctx context.Context, a *app, addr string) error {
	srv := &http.Server{Addr: addr, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	a.logger.Info("serving pprof, interrupt to stop", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("pprof server: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
