package main

import (
	"fmt"
	"io"
	"net"
	"strings"

	mylisp "github.com/NKalu/myLISP/core"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var sendCmd = &cobra.Command{
	Use:   "send [expr]",
	Short: "Send one request to a running core",
	Long: `Send one request to a core started with "mylisp serve" and print the
JSON response. With --raw the request is read from stdin as a JSON object.`,
	Example: `  mylisp send "(def {x} 5)"
  mylisp send --op get --name x
  echo '{"op":"traces","limit":2}' | mylisp send --raw`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().String("op", "", "Request op; defaults to eval when an expression is given")
	sendCmd.Flags().String("name", "", "Symbol name for the get op")
	sendCmd.Flags().Int("limit", -1, "Trace count for the traces op")
	sendCmd.Flags().Bool("raw", false, "Read the request JSON from stdin")
	sendCmd.Flags().String("network", "", "Core network (defaults to server.network)")
	sendCmd.Flags().String("address", "", "Core address (defaults to server.address)")
}

func runSend(cmd *cobra.Command, args []string) error {
	msg, err := buildRequest(cmd, args)
	if err != nil {
		return err
	}
	if _, ok := msg["id"]; !ok {
		msg["id"] = mylisp.NextID()
	}

	network, _ := cmd.Flags().GetString("network")
	if network == "" {
		network = viper.GetString("server.network")
	}
	address, _ := cmd.Flags().GetString("address")
	if address == "" {
		address = viper.GetString("server.address")
	}

	conn, err := net.Dial(network, address)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	resp, err := roundTrip(conn, msg)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("format response: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func roundTrip(rw io.ReadWriter, msg map[string]any) (map[string]any, error) {
	if err := mylisp.WriteMsg(rw, msg); err != nil {
		return nil, fmt.Errorf("send: %w", err)
	}
	resp, err := mylisp.ReadMsg(rw)
	if err != nil {
		return nil, fmt.Errorf("receive: %w", err)
	}
	return resp, nil
}

func buildRequest(cmd *cobra.Command, args []string) (map[string]any, error) {
	raw, _ := cmd.Flags().GetBool("raw")
	if raw {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		if msg == nil {
			return nil, fmt.Errorf("parse JSON: expected an object")
		}
		return msg, nil
	}

	op, _ := cmd.Flags().GetString("op")
	if op == "" && len(args) > 0 {
		op = "eval"
	}
	msg := map[string]any{"op": op}
	switch op {
	case "eval":
		if len(args) == 0 {
			return nil, fmt.Errorf("eval: expression required")
		}
		msg["expr"] = strings.Join(args, " ")
	case "get":
		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			return nil, fmt.Errorf("get: --name required")
		}
		msg["name"] = name
	case "traces":
		if limit, _ := cmd.Flags().GetInt("limit"); limit >= 0 {
			msg["limit"] = limit
		}
	}
	return msg, nil
}
