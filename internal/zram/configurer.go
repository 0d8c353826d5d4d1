package zram

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/blackwell-systems/droidops/internal/shell"
)

// Pipeline step names, used in StepError and warnings.
const (
	StepReset     = "reset"
	StepDisksize  = "disksize"
	StepAlgorithm = "comp_algorithm"
	StepStreams   = "max_comp_streams"
	StepMemLimit  = "mem_limit"
	StepMkswap    = "mkswap"
	StepSwapon    = "swapon"
)

// StepError is a fatal pipeline failure.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Result summarizes a successful run.
type Result struct {
	Algorithm         string // algorithm written, empty if the default was kept
	AlgorithmFallback bool   // the preferred algorithm was not advertised
	Warnings          []string
}

// Configurer applies a Config to the device.
type Configurer struct {
	cfg    Config
	run    shell.Runner
	writer io.Writer
}

// NewConfigurer returns a Configurer that runs mkswap/swapon through r.
func NewConfigurer(cfg Config, r shell.Runner) *Configurer {
	return &Configurer{cfg: cfg, run: r, writer: io.Discard}
}

// SetWriter sets where progress and warnings are printed.
func (c *Configurer) SetWriter(w io.Writer) {
	c.writer = w
}

// Apply resets, sizes and tunes the device, then formats and enables it as
// swap. The first fatal failure is returned as a *StepError; earlier steps
// are not rolled back.
func (c *Configurer) Apply() (*Result, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid zram config: %w", err)
	}
	res := &Result{}

	if err := writeControl(c.cfg.ControlPath(StepReset), "1"); err != nil {
		return res, &StepError{Step: StepReset, Err: err}
	}
	fmt.Fprintf(c.writer, "✓ Reset %s\n", c.cfg.Device)

	size := strconv.FormatUint(c.cfg.SizeBytes, 10)
	if err := writeControl(c.cfg.ControlPath(StepDisksize), size); err != nil {
		return res, &StepError{Step: StepDisksize, Err: err}
	}
	fmt.Fprintf(c.writer, "✓ Disk size set to %s bytes\n", size)

	c.applyAlgorithm(res)

	if c.cfg.Streams > 0 {
		if err := writeControl(c.cfg.ControlPath(StepStreams), strconv.Itoa(c.cfg.Streams)); err != nil {
			c.warn(res, "could not set %s: %v", StepStreams, err)
		}
	}
	if c.cfg.MemLimit > 0 {
		if err := writeControl(c.cfg.ControlPath(StepMemLimit), strconv.FormatUint(c.cfg.MemLimit, 10)); err != nil {
			c.warn(res, "could not set %s: %v", StepMemLimit, err)
		}
	}

	dev := c.cfg.DevicePath()
	if err := c.run.Run("mkswap", dev).Error("mkswap", dev); err != nil {
		return res, &StepError{Step: StepMkswap, Err: err}
	}
	if err := c.run.Run("swapon", dev).Error("swapon", dev); err != nil {
		return res, &StepError{Step: StepSwapon, Err: err}
	}
	fmt.Fprintf(c.writer, "✓ Swap enabled on %s\n", dev)

	return res, nil
}

// applyAlgorithm never fails the pipeline; problems become warnings and the
// device keeps its current algorithm.
func (c *Configurer) applyAlgorithm(res *Result) {
	path := c.cfg.ControlPath(StepAlgorithm)
	algo := c.cfg.Algorithm

	if c.cfg.AlgorithmMode == ModeNegotiate {
		data, err := os.ReadFile(path)
		if err != nil {
			c.warn(res, "cannot read %s: %v", StepAlgorithm, err)
			return
		}
		chosen, fallback, err := SelectAlgorithm(string(data), c.cfg.Algorithm)
		if errors.Is(err, ErrNoSelection) {
			fmt.Fprintln(c.writer, "Algorithm: unknown, using default")
			return
		}
		algo = chosen
		res.AlgorithmFallback = fallback
	}

	if err := writeControl(path, algo); err != nil {
		c.warn(res, "cannot set algorithm %s: %v", algo, err)
		return
	}
	res.Algorithm = algo
	if res.AlgorithmFallback {
		fmt.Fprintf(c.writer, "Algorithm: %s (fallback)\n", algo)
	} else {
		fmt.Fprintf(c.writer, "Algorithm: %s\n", algo)
	}
}

func (c *Configurer) warn(res *Result, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	res.Warnings = append(res.Warnings, msg)
	fmt.Fprintf(c.writer, "warning: %s\n", msg)
}

// writeControl replaces the contents of a sysfs control file. The file must
// already exist; sysfs attributes are never created.
func writeControl(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// readControl returns the trimmed contents of a control file, or "" if it
// cannot be read.
func readControl(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
