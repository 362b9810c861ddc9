package app

import (
	"context"
	"log/slog"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// logEnvironment prints the host the sampler runs on at debug level.
func logEnvironment(ctx context.Context, logger *slog.Logger) {
	attrs := []any{
		slog.String("os", runtime.GOOS),
		slog.String("arch", runtime.GOARCH),
		slog.String("go", runtime.Version()),
	}

	if info, err := host.InfoWithContext(ctx); err == nil {
		attrs = append(attrs,
			slog.String("hostname", info.Hostname),
			slog.String("platform", info.Platform),
			slog.String("platformVersion", info.PlatformVersion),
			slog.String("kernel", info.KernelVersion))
	}

	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		attrs = append(attrs, slog.Int("cpus", n))
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		attrs = append(attrs,
			slog.String("memoryTotal", humanize.IBytes(vm.Total)),
			slog.String("memoryAvailable", humanize.IBytes(vm.Available)))
	}

	logger.Debug("host environment", attrs...)
}

func logDatabase(path string, logger *slog.Logger) {
	stat, err := os.Stat(path)
	if err != nil {
		return
	}

	logger.Info("database ready", slog.String("path", path), slog.String("size", humanize.IBytes(uint64(stat.Size()))))
}
