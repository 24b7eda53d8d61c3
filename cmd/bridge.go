package cmd

import (
	"context"

	"musicbox/bridge"
	"musicbox/config"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func bridgeCmd(opts *rootOptions) *cobra.Command {
	var (
		serialPort string
		baudRate   int
		wsURL      string
	)

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Connect a serial controller to a running server",
		Long: `Open the controller's serial port and the server's websocket endpoint and
relay between them: button presses become commands for the server, player
updates and command echoes are written to the controller as JSON lines.

Examples:
  musicbox bridge
  musicbox bridge --serial-port /dev/ttyUSB0 --ws-url ws://pi.local:8000/ws`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg.Bridge
			if cmd.Flags().Changed("serial-port") {
				cfg.SerialPort = serialPort
			}
			if cmd.Flags().Changed("baud") {
				cfg.BaudRate = baudRate
			}
			if cmd.Flags().Changed("ws-url") {
				cfg.WSURL = wsURL
			}
			return runBridge(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&serialPort, "serial-port", "/dev/ttyACM0", "Serial device of the controller")
	cmd.Flags().IntVar(&baudRate, "baud", 115200, "Serial baud rate")
	cmd.Flags().StringVar(&wsURL, "ws-url", "ws://localhost:8000/ws", "Websocket endpoint of the server")

	return cmd
}

func runBridge(ctx context.Context, cfg config.BridgeConfig) error {
	log.Info().Str("port", cfg.SerialPort).Int("baud", cfg.BaudRate).Msg("Connecting to controller")
	port, err := bridge.OpenSerial(cfg.SerialPort, cfg.BaudRate)
	if err != nil {
		log.Error().Err(err).Msg("Controller connection failed, check the device with: ls /dev/tty* | grep -E 'ACM|USB'")
		return err
	}

	log.Info().Str("url", cfg.WSURL).Msg("Connecting to server")
	conn, err := bridge.Dial(ctx, cfg.WSURL)
	if err != nil {
		port.Close()
		return err
	}

	log.Info().Msg("Bridge active")
	if err := bridge.New(port, conn, cfg.PollInterval()).Run(ctx); err != nil {
		return err
	}

	log.Info().Msg("Bridge stopped")
	return nil
}
