package app

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/blackwell-systems/droidops/internal/config"
	"github.com/blackwell-systems/droidops/internal/output"
	"github.com/blackwell-systems/droidops/internal/store"
	"github.com/blackwell-systems/droidops/internal/zram"
)

var (
	zramCmd = &cobra.Command{
		Use:   "zram",
		Short: "Provision a compressed RAM block device as swap",
		Long: `Reset a zram device, size it, pick its compression algorithm and enable it
as swap space.

Steps:
  1. write 1 to reset
  2. write the size in bytes to disksize
  3. choose the algorithm (see --algorithm-mode)
  4. tune max_comp_streams and mem_limit (failures are warnings)
  5. mkswap the device
  6. swapon the device

A failure in steps 1, 2, 5 or 6 aborts with exit status 1. Earlier steps are
not rolled back; run the command again once the cause is fixed.

Algorithm modes:
  • negotiate (default): use --algorithm only if comp_algorithm lists it,
    otherwise keep the algorithm the device has selected
  • direct: write --algorithm without checking`,
		Example: `  # 512 MiB with lz4 (the defaults)
  droidops zram

  # 1 GiB with zstd, capped at 256 MiB of RAM
  droidops zram --size 1GiB --algorithm zstd --mem-limit 256MiB

  # Show the current device state
  droidops zram status`,
		Args: cobra.NoArgs,
		RunE: runZram,
	}

	zramStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the zram device state",
		Long: `Print the zram device's size, compression algorithm, tuning values and
whether it is an active swap area, plus host RAM and swap totals.`,
		Example: `  droidops zram status
  droidops zram status --device zram1`,
		Args: cobra.NoArgs,
		RunE: runZramStatus,
	}
)

func init() {
	registerZramFlags(zramCmd.PersistentFlags())
	zramStatusCmd.Flags().String("swaps-file", zram.DefaultSwapsPath, "swap table to inspect")
	zramStatusCmd.Flags().MarkHidden("swaps-file")
	zramCmd.AddCommand(zramStatusCmd)
}

func registerZramFlags(fs *pflag.FlagSet) {
	def := zram.DefaultConfig()
	fs.String("device", def.Device, "zram block device name")
	fs.String("size", "512MiB", "swap size (e.g. 512MiB, 1GiB, or bytes)")
	fs.String("algorithm", def.Algorithm, "preferred compression algorithm")
	fs.String("algorithm-mode", string(def.AlgorithmMode), "how to apply the algorithm: negotiate or direct")
	fs.Int("streams", def.Streams, "max_comp_streams value (0 to leave unchanged)")
	fs.String("mem-limit", "0", "mem_limit value (0 to leave unchanged)")
	fs.String("sysfs-root", def.SysfsRoot, "sysfs block directory")
	fs.String("dev-root", def.DevRoot, "block device node directory")
}

// resolveZramConfig applies flags over the config file over defaults.
func resolveZramConfig(fs *pflag.FlagSet, file *config.File) (zram.Config, error) {
	cfg := zram.DefaultConfig()

	str := func(flag, key string, dst *string) error {
		if fs.Changed(flag) {
			v, err := fs.GetString(flag)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		}
		*dst = file.String(key, *dst)
		return nil
	}
	size := func(flag, key string, dst *uint64) error {
		if fs.Changed(flag) {
			v, err := fs.GetString(flag)
			if err != nil {
				return err
			}
			n, err := config.ParseSize(v)
			if err != nil {
				return fmt.Errorf("--%s: %w", flag, err)
			}
			*dst = n
			return nil
		}
		n, err := file.Bytes(key, *dst)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}

	mode := string(cfg.AlgorithmMode)
	steps := []func() error{
		func() error { return str("device", config.KeyZramDevice, &cfg.Device) },
		func() error { return str("algorithm", config.KeyZramAlgorithm, &cfg.Algorithm) },
		func() error { return str("algorithm-mode", config.KeyZramMode, &mode) },
		func() error { return size("size", config.KeyZramSize, &cfg.SizeBytes) },
		func() error { return size("mem-limit", config.KeyZramMemLimit, &cfg.MemLimit) },
		func() error {
			if fs.Changed("streams") {
				n, err := fs.GetInt("streams")
				cfg.Streams = n
				return err
			}
			n, err := file.Int(config.KeyZramStreams, cfg.Streams)
			cfg.Streams = n
			return err
		},
		func() error {
			var err error
			cfg.SysfsRoot, err = fs.GetString("sysfs-root")
			return err
		},
		func() error {
			var err error
			cfg.DevRoot, err = fs.GetString("dev-root")
			return err
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return cfg, err
		}
	}

	m, err := zram.ParseAlgorithmMode(mode)
	if err != nil {
		return cfg, err
	}
	cfg.AlgorithmMode = m

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func describeZram(cfg zram.Config) string {
	return fmt.Sprintf("%s %s %s (%s)", cfg.Device, humanize.IBytes(cfg.SizeBytes), cfg.Algorithm, cfg.AlgorithmMode)
}

func runZram(cmd *cobra.Command, args []string) error {
	file, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveZramConfig(cmd.Flags(), file)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	hist := beginHistory(store.KindZram, describeZram(cfg))

	c := zram.NewConfigurer(cfg, newRunner())
	c.SetWriter(out)
	res, err := c.Apply()
	if err != nil {
		hist.finish(store.StatusFailed, err.Error())
		var stepErr *zram.StepError
		if errors.As(err, &stepErr) {
			fmt.Fprintf(out, "Failed: %s\n", stepErr.Step)
		}
		return err
	}

	detail := describeZram(cfg)
	if res.Algorithm != "" && res.Algorithm != cfg.Algorithm {
		detail += fmt.Sprintf(", using %s", res.Algorithm)
	}
	if len(res.Warnings) > 0 {
		detail += fmt.Sprintf(", %d warnings", len(res.Warnings))
	}
	hist.finish(store.StatusOK, detail)

	fmt.Fprintf(out, "\nzRAM %s enabled successfully!\n", humanize.IBytes(cfg.SizeBytes))
	return nil
}

func runZramStatus(cmd *cobra.Command, args []string) error {
	file, err := loadConfig()
	if err != nil {
		return err
	}
	cfg, err := resolveZramConfig(cmd.Flags(), file)
	if err != nil {
		return err
	}
	swaps, err := cmd.Flags().GetString("swaps-file")
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderZramStatus(zram.ReadStatus(cfg, swaps)))
	return nil
}
