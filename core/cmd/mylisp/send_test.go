package main

import (
	"net"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialUnix(path string) (net.Conn, error) {
	return net.Dial("unix", path)
}

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
		args  []string
		want  map[string]any
	}{
		{
			name: "expression defaults to eval",
			args: []string{"+ 1 2"},
			want: map[string]any{"op": "eval", "expr": "+ 1 2"},
		},
		{
			name:  "get",
			flags: map[string]string{"op": "get", "name": "x"},
			want:  map[string]any{"op": "get", "name": "x"},
		},
		{
			name:  "traces with limit",
			flags: map[string]string{"op": "traces", "limit": "3"},
			want:  map[string]any{"op": "traces", "limit": 3},
		},
		{
			name: "manual",
			want: map[string]any{"op": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("op", "", "")
			cmd.Flags().String("name", "", "")
			cmd.Flags().Int("limit", -1, "")
			cmd.Flags().Bool("raw", false, "")
			for k, v := range tt.flags {
				require.NoError(t, cmd.Flags().Set(k, v))
			}

			got, err := buildRequest(cmd, tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRequest_Errors(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.Flags().String("op", "get", "")
	cmd.Flags().String("name", "", "")
	cmd.Flags().Int("limit", -1, "")
	cmd.Flags().Bool("raw", false, "")

	_, err := buildRequest(cmd, nil)
	assert.EqualError(t, err, "get: --name required")
}
