// Package capability probes host compute resources for model recommendation.
// Every probe is best-effort: a failure falls back to a conservative default
// instead of surfacing an error, so recommendation and startup never block on
// missing GPU drivers or an unreadable memory stat.
package capability

import (
	"context"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"whisper-web/internal/domain"
)

// defaultAvailableMemory is assumed when the memory probe fails: 4 GiB.
const defaultAvailableMemory = 4 << 30

const probeTimeout = 3 * time.Second

type Prober struct {
	lookPath      func(string) (string, error)
	run           func(ctx context.Context, name string, args ...string) ([]byte, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
	logger        *slog.Logger
}

// NewProber builds a prober using real OS dependencies.
func NewProber(logger *slog.Logger) *Prober {
	return &Prober{
		lookPath: exec.LookPath,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		virtualMemory: mem.VirtualMemory,
		logger:        logger,
	}
}

// Probe snapshots GPU presence, GPU memory, and available system memory.
// It never fails; unknown values come back as documented defaults.
func (p *Prober) Probe(ctx context.Context) domain.Capabilities {
	caps := domain.Capabilities{
		AvailableMemoryBytes: defaultAvailableMemory,
	}

	caps.GPUPresent, caps.GPUMemoryBytes = p.probeGPU(ctx)

	vm, err := p.virtualMemory()
	if err != nil {
		p.logger.Debug("memory probe failed, assuming default", "error", err)
	} else {
		caps.AvailableMemoryBytes = vm.Available
	}

	return caps
}

// probeGPU detects an NVIDIA GPU via nvidia-smi. Absence of the binary or a
// failing query both mean "no GPU" as far as recommendation is concerned.
func (p *Prober) probeGPU(ctx context.Context) (bool, uint64) {
	if _, err := p.lookPath("nvidia-smi"); err != nil {
		return false, 0
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	out, err := p.run(ctx, "nvidia-smi", "--query-gpu=memory.total", "--format=csv,noheader,nounits")
	if err != nil {
		p.logger.Debug("nvidia-smi query failed, assuming no GPU", "error", err)
		return false, 0
	}

	// One line per GPU, total memory in MiB. The first GPU is the one the
	// engine will run on.
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	mib, err := strconv.ParseUint(strings.TrimSpace(line), 10, 64)
	if err != nil {
		p.logger.Debug("unparseable nvidia-smi output", "output", line)
		return true, 0
	}
	return true, mib << 20
}

// NewProberForTests creates a prober with injectable probe functions.
func NewProberForTests(
	lookPath func(string) (string, error),
	run func(ctx context.Context, name string, args ...string) ([]byte, error),
	virtualMemory func() (*mem.VirtualMemoryStat, error),
	logger *slog.Logger,
) *Prober {
	return &Prober{
		lookPath:      lookPath,
		run:           run,
		virtualMemory: virtualMemory,
		logger:        logger,
	}
}
