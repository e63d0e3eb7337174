package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/arpena/hpa4911/internal/client"
	"github.com/arpena/hpa4911/internal/config"
	"github.com/arpena/hpa4911/internal/monitor"
	"github.com/arpena/hpa4911/internal/protocol"
)

// Command flags
var (
	setMode     string
	setFan      string
	setTemp     float64
	setHSwing   bool
	setVSwing   bool
	setSwingOff bool

	addIP   string
	addName string
)

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)
	devicesCmd.AddCommand(devicesListCmd)

	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(modeCmd)
	rootCmd.AddCommand(offsetCmd)
	rootCmd.AddCommand(pollCmd)

	devicesAddCmd.Flags().StringVar(&addIP, "ip", "", "Device IP address (optional; broadcast is used otherwise)")
	devicesAddCmd.Flags().StringVar(&addName, "name", "", "Friendly name for the device")

	setCmd.Flags().StringVar(&setMode, "mode", "cool", "Mode: off, cool, heat, dry, fan, auto")
	setCmd.Flags().StringVar(&setFan, "fan", "auto", "Fan: low, medium, high, auto")
	setCmd.Flags().Float64Var(&setTemp, "temp", 24, "Target temperature in degrees C")
	setCmd.Flags().BoolVar(&setHSwing, "hswing", false, "Enable horizontal swing")
	setCmd.Flags().BoolVar(&setVSwing, "vswing", false, "Enable vertical swing")
	setCmd.Flags().BoolVar(&setSwingOff, "swing-off", false, "Force horizontal swing off (overrides --hswing)")
}

// newClient builds a client from the saved registry and registers every
// known device with it.
func newClient() (*client.Client, *config.Registry, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load device registry: %w", err)
	}

	cfg := client.Config{}
	if registry.Preferences.RefreshSeconds > 0 {
		cfg.RefreshInterval = time.Duration(registry.Preferences.RefreshSeconds) * time.Second
	}

	c, err := client.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	for macStr, dev := range registry.Devices {
		mac, err := protocol.ParseMAC(macStr)
		if err != nil {
			continue
		}
		c.RegisterDevice(mac, dev.LastIP)
	}

	return c, registry, nil
}

func parseDeviceArg(arg string) (protocol.MAC, error) {
	mac, err := protocol.ParseMAC(arg)
	if err != nil {
		return mac, fmt.Errorf("%w (expected a MAC like A4:C1:38:01:02:03)", err)
	}
	return mac, nil
}

// devicesCmd manages the device registry
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage the registry of known devices",
}

var devicesAddCmd = &cobra.Command{
	Use:     "add <mac>",
	Short:   "Add a device to the registry",
	Example: `  hpa4911ctl devices add A4:C1:38:01:02:03 --ip 192.168.1.40 --name "Living room"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if err := registry.AddDevice(args[0], addName, addIP); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("Added %s\n", args[0])
		return nil
	},
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <mac>",
	Short: "Remove a device from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if err := registry.RemoveDevice(args[0]); err != nil {
			return err
		}
		if err := registry.Save(); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := config.LoadRegistry()
		if err != nil {
			return err
		}
		if len(registry.Devices) == 0 {
			fmt.Println("No devices registered. Use 'hpa4911ctl devices add <mac>'.")
			return nil
		}

		macs := make([]string, 0, len(registry.Devices))
		for mac := range registry.Devices {
			macs = append(macs, mac)
		}
		sort.Strings(macs)

		for _, mac := range macs {
			d := registry.Devices[mac]
			fmt.Printf("%s  ip=%-15s  name=%q", mac, valueOr(d.LastIP, "-"), d.Nickname)
			if !d.LastSeen.IsZero() {
				fmt.Printf("  last seen %s", d.LastSeen.Format(time.RFC3339))
			}
			fmt.Println()
		}
		return nil
	},
}

// monitorCmd runs the live TUI
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live terminal view of all registered devices",
	RunE:  runMonitor,
}

func runMonitor(cmd *cobra.Command, args []string) error {
	c, registry, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	names := make(map[string]string, len(registry.Devices))
	for mac, d := range registry.Devices {
		names[mac] = d.Nickname
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := monitor.New(c, names)
	c.Start(ctx)

	_, err = tea.NewProgram(model).Run()
	return err
}

// watchCmd streams decoded statuses as plain text
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream status updates to stdout until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, registry, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		names := make(map[string]string, len(registry.Devices))
		for mac, d := range registry.Devices {
			names[mac] = d.Nickname
		}
		label := func(mac protocol.MAC) string {
			if n := names[mac.String()]; n != "" {
				return fmt.Sprintf("%s (%s)", n, mac)
			}
			return mac.String()
		}

		c.SetStatusCallback(func(mac protocol.MAC, status *protocol.HVACStatus) {
			fmt.Printf("%s  %s  %s\n", time.Now().Format("15:04:05"), label(mac), status)
		})
		c.SetDeviceStatusCallback(func(mac protocol.MAC, status *protocol.DeviceStatus) {
			fmt.Printf("%s  %s  %s\n", time.Now().Format("15:04:05"), label(mac), status)
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c.Start(ctx)

		fmt.Printf("Watching %d device(s); Ctrl-C to stop.\n", len(registry.Devices))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		return nil
	},
}

// setCmd issues a full HVAC state command
var setCmd = &cobra.Command{
	Use:   "set <mac>",
	Short: "Set mode, fan, temperature and swing in one command",
	Example: `  # Cool to 23.5 with auto fan
  hpa4911ctl set A4:C1:38:01:02:03 --mode cool --temp 23.5

  # Heat with vertical swing
  hpa4911ctl set A4:C1:38:01:02:03 --mode heat --temp 21 --fan low --vswing

  # Turn horizontal swing off without touching turbo
  hpa4911ctl set A4:C1:38:01:02:03 --mode cool --temp 24 --swing-off`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mac, err := parseDeviceArg(args[0])
		if err != nil {
			return err
		}
		mode, ok := protocol.ParseMode(setMode)
		if !ok {
			return fmt.Errorf("unknown mode %q", setMode)
		}
		fan, ok := protocol.ParseFanMode(setFan)
		if !ok {
			return fmt.Errorf("unknown fan mode %q", setFan)
		}

		c, _, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		if setSwingOff {
			c.SetSwingOff(mac, mode, fan, setTemp)
		} else {
			c.SetFull(mac, mode, fan, protocol.SwingFlags(setHSwing, setVSwing), setTemp)
		}
		// Ask for a status push so the next watch/monitor reflects the change.
		c.Subscribe(mac)

		fmt.Printf("Sent %s/%s %.1fC to %s\n", setMode, setFan, setTemp, mac)
		return nil
	},
}

// modeCmd issues a bare mode change
var modeCmd = &cobra.Command{
	Use:   "mode <mac> <off|cool|heat|dry|fan|auto>",
	Short: "Set the HVAC operating mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mac, err := parseDeviceArg(args[0])
		if err != nil {
			return err
		}
		mode, ok := protocol.ParseMode(args[1])
		if !ok {
			return fmt.Errorf("unknown mode %q", args[1])
		}

		c, _, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		c.SetMode(mac, mode)
		c.Subscribe(mac)

		fmt.Printf("Sent mode %s to %s\n", args[1], mac)
		return nil
	},
}

// offsetCmd calibrates the measured room temperature
var offsetCmd = &cobra.Command{
	Use:   "offset <mac> <value>",
	Short: "Set the room temperature offset (hundredths of a degree)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mac, err := parseDeviceArg(args[0])
		if err != nil {
			return err
		}
		offset, err := strconv.ParseInt(args[1], 10, 16)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[1], err)
		}

		c, _, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		c.SetTemperatureOffset(mac, int16(offset))
		fmt.Printf("Sent offset %d to %s\n", offset, mac)
		return nil
	},
}

// pollCmd broadcasts a one-shot poll
var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Broadcast a poll so every device pushes its status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		c.Poll()
		c.RequestDeviceInfo(protocol.Broadcast)
		fmt.Println("Poll sent.")
		return nil
	},
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
