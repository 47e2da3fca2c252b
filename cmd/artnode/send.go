package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gopatchy/artnode/internal/config"

	"github.com/gopatchy/artnode/artnet/wire"
)

func resolveAndSend(target string, data []byte) error {
	addr, err := net.ResolveUDPAddr("udp4", target)
	if err != nil {
		return fmt.Errorf("resolve target %q: %w", target, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()
	_, err = conn.Write(data)
	return err
}

func parseDMXData(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	fields := strings.Split(raw, ",")
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || v < 0 || v > 255 {
			return nil, fmt.Errorf("invalid DMX value %q (want 0-255)", f)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func newSendDMXCommand() *cobra.Command {
	var target, addrStr, data string
	var physical uint8

	cmd := &cobra.Command{
		Use:   "send-dmx",
		Short: "Send a single ArtDmx packet to a target host",
		RunE: func(cmd *cobra.Command, args []string) error {
			pa, err := config.ParsePortAddress(addrStr)
			if err != nil {
				return err
			}
			values, err := parseDMXData(data)
			if err != nil {
				return err
			}
			pkt := &wire.DMXPacket{
				Physical: physical,
				Net:      pa.Net(), SubNet: pa.SubNet(), Universe: pa.Universe(),
				Data: values,
			}
			return resolveAndSend(target, wire.Encode(pkt))
		},
	}
	cmd.Flags().StringVar(&target, "target", fmt.Sprintf("127.0.0.1:%d", wire.Port), "destination host:port")
	cmd.Flags().StringVar(&addrStr, "address", "0.0.0", "Port-Address (net.subnet.universe or plain number)")
	cmd.Flags().StringVar(&data, "data", "", "comma-separated DMX channel values (0-255)")
	cmd.Flags().Uint8Var(&physical, "physical", 0, "physical port number to report")
	return cmd
}

func newSendRdmCommand() *cobra.Command {
	var target, addrStr, data string
	var commandClass uint8

	cmd := &cobra.Command{
		Use:   "send-rdm",
		Short: "Send a unicast ArtRdm request to a target host",
		RunE: func(cmd *cobra.Command, args []string) error {
			pa, err := config.ParsePortAddress(addrStr)
			if err != nil {
				return err
			}
			params, err := parseDMXData(data)
			if err != nil {
				return err
			}
			pkt := &wire.RdmPacket{
				Net:          pa.Net(),
				SubUni:       pa.SubNet()<<4 | pa.Universe(),
				CommandClass: commandClass,
				Data:         params,
			}
			return resolveAndSend(target, wire.Encode(pkt))
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "destination host:port (required, ArtRdm is never broadcast)")
	cmd.Flags().StringVar(&addrStr, "address", "0.0.0", "Port-Address (net.subnet.universe or plain number)")
	cmd.Flags().StringVar(&data, "params", "", "comma-separated RDM parameter bytes")
	cmd.Flags().Uint8Var(&commandClass, "command-class", wire.RdmClassGet, "RDM command class (0x20 get, 0x30 set)")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newSendSyncCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "send-sync",
		Short: "Send an ArtSync packet to a target host",
		RunE: func(cmd *cobra.Command, args []string) error {
			return resolveAndSend(target, wire.Encode(&wire.SyncPacket{}))
		},
	}
	cmd.Flags().StringVar(&target, "target", fmt.Sprintf("255.255.255.255:%d", wire.Port), "destination host:port")
	return cmd
}

func newSendDiagnosticCommand() *cobra.Command {
	var target, text, priority string
	cmd := &cobra.Command{
		Use:   "send-diagnostic",
		Short: "Send an ArtDiagData packet to a target host",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkt := &wire.DiagDataPacket{Priority: diagPriorityValue(priority), Text: []byte(text)}
			return resolveAndSend(target, wire.Encode(pkt))
		},
	}
	cmd.Flags().StringVar(&target, "target", fmt.Sprintf("255.255.255.255:%d", wire.Port), "destination host:port")
	cmd.Flags().StringVar(&text, "text", "", "diagnostic message text")
	cmd.Flags().StringVar(&priority, "priority", "low", "low|medium|high")
	return cmd
}

func diagPriorityValue(s string) uint8 {
	switch strings.ToLower(s) {
	case "high":
		return wire.DiagPriorityHigh
	case "medium":
		return wire.DiagPriorityMedium
	default:
		return wire.DiagPriorityLow
	}
}
