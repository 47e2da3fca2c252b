package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

func newStateCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Fetch /state from a running node's HTTP introspection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient().Get(target + "/state")
			if err != nil {
				return fmt.Errorf("fetch state: %w", err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("state endpoint returned %s: %s", resp.Status, body)
			}
			var pretty interface{}
			if err := json.Unmarshal(body, &pretty); err != nil {
				return fmt.Errorf("decode state response: %w", err)
			}
			out, err := json.MarshalIndent(pretty, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "http://127.0.0.1:8080", "base URL of the node's HTTP introspection server")
	return cmd
}

func newEnqueueCommandCommand() *cobra.Command {
	var target, message string
	var port uint16
	var data string

	cmd := &cobra.Command{
		Use:   "enqueue-command <name>",
		Short: "POST an operator command (send-sync, snapshot, send-dmx, send-rdm, send-diagnostic, apply-state) to a running node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body io.Reader
			if message != "" || port != 0 || data != "" {
				values, err := parseDMXData(data)
				if err != nil {
					return err
				}
				payload, err := json.Marshal(struct {
					Port    uint16 `json:"port"`
					Data    []byte `json:"data"`
					Message string `json:"message"`
				}{Port: port, Data: values, Message: message})
				if err != nil {
					return err
				}
				body = bytes.NewReader(payload)
			}
			url := fmt.Sprintf("%s/command/%s", target, args[0])
			resp, err := httpClient().Post(url, "application/json", body)
			if err != nil {
				return fmt.Errorf("post command: %w", err)
			}
			defer resp.Body.Close()
			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusAccepted {
				return fmt.Errorf("command endpoint returned %s: %s", resp.Status, respBody)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "http://127.0.0.1:8080", "base URL of the node's HTTP introspection server")
	cmd.Flags().StringVar(&message, "message", "", "Message field for commands that need it (diagnostic text, RDM target, apply-state name)")
	cmd.Flags().Uint16Var(&port, "port", 0, "Port-Address field for port-scoped commands")
	cmd.Flags().StringVar(&data, "data", "", "comma-separated byte payload for commands that carry one")
	return cmd
}

func newStopNodeCommand() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "stop-node",
		Short: "Request a graceful shutdown of a running node over its HTTP introspection server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := httpClient().Post(target+"/shutdown", "application/json", nil)
			if err != nil {
				return fmt.Errorf("post shutdown: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusAccepted {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("shutdown endpoint returned %s: %s", resp.Status, body)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "http://127.0.0.1:8080", "base URL of the node's HTTP introspection server")
	return cmd
}
