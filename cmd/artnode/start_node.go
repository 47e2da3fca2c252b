package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/gopatchy/artnode/artnet/wire"
	"github.com/gopatchy/artnode/internal/config"
	"github.com/gopatchy/artnode/internal/metrics"
	"github.com/gopatchy/artnode/internal/netiface"
	"github.com/gopatchy/artnode/internal/shell"
)

func newStartNodeCommand(env *cliEnv) *cobra.Command {
	var httpListen string
	var ifaceName string

	cmd := &cobra.Command{
		Use:   "start-node",
		Short: "Run the node: bind the Art-Net UDP socket and serve /state, /healthz, /metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStartNode(cmd.Context(), env, httpListen, ifaceName)
		},
	}
	cmd.Flags().StringVar(&httpListen, "http-listen", ":8080", "HTTP introspection server listen address (empty to disable)")
	cmd.Flags().StringVar(&ifaceName, "interface", "auto", "network interface to bind (or \"auto\")")
	return cmd
}

func runStartNode(ctx context.Context, env *cliEnv, httpListen, ifaceName string) error {
	log := env.logger()
	defer log.Sync()

	cfg, err := config.Load(*env.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	iface, err := netiface.Select(ifaceName)
	if err != nil {
		return fmt.Errorf("select interface: %w", err)
	}
	log.EmitEffect("bound interface", "info", map[string]interface{}{
		"name": iface.Name, "ip": net.IP(iface.IP[:]).String(),
	})

	broadcasts, err := netiface.ParseBroadcastList(cfg.Bind.Broadcast)
	if err != nil {
		return fmt.Errorf("parse broadcast list: %w", err)
	}
	var targets []*net.UDPAddr
	if broadcasts == nil {
		targets = append(targets, &net.UDPAddr{IP: net.IP(iface.Broadcast[:]), Port: wire.Port})
	} else {
		for _, ip := range broadcasts {
			targets = append(targets, &net.UDPAddr{IP: ip, Port: wire.Port})
		}
	}

	reg := prometheus.NewRegistry()
	mx := metrics.New(reg)

	listenAddr := fmt.Sprintf("%s:%d", cfg.Bind.Host, cfg.Bind.Port)
	machineCfg := cfg.MachineConfig(iface.IP)
	node, err := shell.NewNode(machineCfg, listenAddr, targets, log, mx, nil, iface.Name)
	if err != nil {
		return fmt.Errorf("create node: %w", err)
	}
	log.EmitEffect("node listening", "info", map[string]interface{}{"addr": node.LocalAddr().String()})

	var httpServer *http.Server
	if httpListen != "" {
		httpServer = &http.Server{Addr: httpListen, Handler: shell.NewHTTPServer(node, reg)}
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.EmitEffect("http server error", "error", map[string]interface{}{"error": err.Error()})
			}
		}()
		log.EmitEffect("http introspection listening", "info", map[string]interface{}{"addr": httpListen})
	}

	node.Run(ctx)
	if httpServer != nil {
		_ = httpServer.Close()
	}
	return nil
}
