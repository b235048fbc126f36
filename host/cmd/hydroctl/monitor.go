package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hydroponics/host/serial"
	"hydroponics/protocol"
)

var (
	monitorOpts = struct {
		device string
		baud   int
	}{}

	monitorCmd = &cobra.Command{
		Use:   "monitor",
		Short: "Print the trace of a running controller",
		Long:  "Open the controller's serial trace link and print every decoded event until the port closes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			portCfg := cfg.Monitor.SerialConfig()
			if cmd.Flags().Changed("device") {
				portCfg.Device = monitorOpts.device
			}
			if cmd.Flags().Changed("baud") {
				portCfg.Baud = monitorOpts.baud
			}

			port, err := serial.Open(portCfg)
			if err != nil {
				return err
			}
			defer port.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Monitoring %s at %d baud\n", portCfg.Device, portCfg.Baud)

			m := serial.NewMonitor(func(seq uint8, evt protocol.TraceEvent) {
				printEvent(out, seq, evt)
			})
			err = m.Run(port)

			frames, dropped, lost := m.Stats()
			fmt.Fprintf(out, "%d frames, %d bytes dropped, %d frames lost, %d bad payloads\n",
				frames, dropped, lost, m.BadPayloads)
			return err
		},
	}
)

func init() {
	monitorCmd.Flags().StringVarP(&monitorOpts.device, "device", "d", "", "Serial device path (default from config)")
	monitorCmd.Flags().IntVarP(&monitorOpts.baud, "baud", "b", serial.DefaultBaud, "Baud rate")
}
