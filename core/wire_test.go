package mylisp

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireOverPipe(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		msg, err := ReadMsg(server)
		if err != nil {
			return
		}
		msg["ok"] = true
		WriteMsg(server, msg)
	}()

	require.NoError(t, WriteMsg(client, map[string]any{"id": "7", "op": "eval", "expr": "{1 2}"}))
	resp, err := ReadMsg(client)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "7", "op": "eval", "expr": "{1 2}", "ok": true}, resp)
}

func TestWireFraming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMsg(&buf, map[string]any{"a": 1}))

	assert.Equal(t, uint32(7), binary.BigEndian.Uint32(buf.Bytes()[:4]))
	assert.Equal(t, `{"a":1}`, buf.String()[4:])
}

func TestReadMsgEOF(t *testing.T) {
	_, err := ReadMsg(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)

	_, err = ReadMsg(bytes.NewReader([]byte{0, 0}))
	assert.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReadMsgTooLarge(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(MaxMsgSize+1))
	_, err := ReadMsg(&buf)
	assert.ErrorIs(t, err, ErrMsgTooLarge)
}

func TestReadMsgBadJSON(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(3))
	buf.WriteString("{x}")
	_, err := ReadMsg(&buf)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestNextID(t *testing.T) {
	a, b := NextID(), NextID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
