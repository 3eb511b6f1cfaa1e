package mylisp

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Options configures a Core.
type Options struct {
	Network   string   // "unix" or "tcp"; defaults to "unix"
	Address   string   // socket path or host:port
	MaxTraces int      // traces kept for the traces op; defaults to 1000
	Rate      float64  // requests per second per connection; 0 disables limiting
	Burst     int      // defaults to 1 when Rate is set
	Session   *Session // optional; receives inputs that change the env
}

// Core is the central actor that owns one Env. All requests are funnelled
// through a single goroutine, which serializes every Get and Put.
type Core struct {
	env       *Env
	ev        Evaluator
	session   *Session
	requests  chan coreRequest
	done      chan struct{}
	closeOnce sync.Once
	listener  net.Listener
	conns     map[net.Conn]struct{}
	connMu    sync.Mutex // protects conns
	traces    []*Trace
	maxTraces int
	limit     rate.Limit
	burst     int
}

type coreRequest struct {
	msg      map[string]any
	response chan map[string]any
}

// NewCore creates a core bound to env and starts listening.
func NewCore(env *Env, opts Options) (*Core, error) {
	if opts.Network == "" {
		opts.Network = "unix"
	}
	if opts.MaxTraces <= 0 {
		opts.MaxTraces = 1000
	}
	if opts.Network == "unix" {
		// Clean up stale socket
		os.Remove(opts.Address)
	}

	c := &Core{
		env:       env,
		session:   opts.Session,
		requests:  make(chan coreRequest, 64),
		done:      make(chan struct{}),
		conns:     make(map[net.Conn]struct{}),
		maxTraces: opts.MaxTraces,
		limit:     rate.Inf,
		burst:     opts.Burst,
	}
	if opts.Rate > 0 {
		c.limit = rate.Limit(opts.Rate)
		if c.burst <= 0 {
			c.burst = 1
		}
	}

	listener, err := net.Listen(opts.Network, opts.Address)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", opts.Network, opts.Address, err)
	}
	c.listener = listener
	return c, nil
}

// Addr returns the listening address.
func (c *Core) Addr() net.Addr {
	return c.listener.Addr()
}

// Run starts the actor goroutine and accepts connections. Blocks until
// Shutdown.
func (c *Core) Run() {
	go c.actorLoop()
	for {
		conn, err := c.listener.Accept()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.WithError(err).Error("Accept failed")
			}
			return
		}
		c.connMu.Lock()
		c.conns[conn] = struct{}{}
		c.connMu.Unlock()
		go c.handleConnection(conn)
	}
}

// Shutdown stops accepting, closes open connections and stops the actor.
func (c *Core) Shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.listener.Close()

		c.connMu.Lock()
		for conn := range c.conns {
			conn.Close()
		}
		c.connMu.Unlock()
	})
}

// actorLoop is the single goroutine that touches the env.
func (c *Core) actorLoop() {
	for {
		select {
		case req := <-c.requests:
			req.response <- c.handleRequest(req.msg)
		case <-c.done:
			return
		}
	}
}

// sendToActor sends a request to the actor and waits for the response.
func (c *Core) sendToActor(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)
	resp := make(chan map[string]any, 1)
	select {
	case c.requests <- coreRequest{msg: msg, response: resp}:
	case <-c.done:
		return errorResponse(id, "core shutting down")
	}
	select {
	case r := <-resp:
		return r
	case <-c.done:
		return errorResponse(id, "core shutting down")
	}
}

func (c *Core) handleRequest(msg map[string]any) map[string]any {
	id, _ := msg["id"].(string)

	op, _ := msg["op"].(string)
	switch op {
	case "":
		return c.coreManual(id)
	case "eval":
		return c.handleEval(id, msg)
	case "get":
		return c.handleGet(id, msg)
	case "symbols":
		return c.handleSymbols(id)
	case "traces":
		return c.handleTraces(id, msg)
	case "reset":
		return c.handleReset(id)
	default:
		return errorResponse(id, fmt.Sprintf("unknown op: %s", op))
	}
}

func (c *Core) coreManual(id string) map[string]any {
	names := c.env.Names()
	builtins := make([]any, 0, len(builtinTable))
	for _, b := range builtinTable {
		builtins = append(builtins, b.name)
	}
	return map[string]any{
		"id": id,
		"ok": true,
		"value": map[string]any{
			"name": "mylisp-core",
			"ops": map[string]any{
				"eval":    "Evaluate an expression. Params: expr (string)",
				"get":     "Render the value bound to a symbol. Params: name (string)",
				"symbols": "List bound symbols in definition order.",
				"traces":  "Return recent evaluation traces. Params: limit (number, optional)",
				"reset":   "Drop every definition and rebind the builtins.",
			},
			"builtins": builtins,
			"symbols":  len(names),
		},
	}
}

func (c *Core) handleEval(id string, msg map[string]any) map[string]any {
	expr, ok := msg["expr"].(string)
	if !ok {
		return errorResponse(id, "eval: missing 'expr' string")
	}

	trace := NewTrace(expr)
	c.ev.Trace = trace
	val, err := c.session.Eval(&c.ev, c.env, expr)
	c.ev.Trace = nil

	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			trace.Error = "ParseError"
			trace.Result = pe.Error()
			c.appendTrace(trace)
			return errorResponse(id, pe.Error())
		}
		// The input was evaluated; only the session append failed.
		log.WithError(err).Error("Session append failed")
	}

	trace.Finish(val)
	c.appendTrace(trace)
	return valueResponse(id, val)
}

func (c *Core) handleGet(id string, msg map[string]any) map[string]any {
	name, ok := msg["name"].(string)
	if !ok {
		return errorResponse(id, "get: missing 'name' string")
	}
	return valueResponse(id, c.env.Get(name))
}

func (c *Core) handleSymbols(id string) map[string]any {
	names := c.env.Names()
	result := make([]any, len(names))
	for i, n := range names {
		result[i] = n
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

// handleTraces returns the last N traces, oldest first.
func (c *Core) handleTraces(id string, msg map[string]any) map[string]any {
	n := len(c.traces)
	if raw, exists := msg["limit"]; exists {
		f, ok := raw.(float64)
		if !ok || f < 0 {
			return errorResponse(id, "traces: 'limit' must be a non-negative number")
		}
		if f < float64(n) {
			n = int(f)
		}
	}

	start := len(c.traces) - n
	result := make([]any, n)
	for i := 0; i < n; i++ {
		result[i] = traceToGo(c.traces[start+i])
	}
	return map[string]any{"id": id, "ok": true, "value": result}
}

func (c *Core) handleReset(id string) map[string]any {
	c.env = NewGlobalEnv()
	c.traces = nil
	if c.session != nil {
		if err := c.session.Clear(); err != nil {
			return errorResponse(id, err.Error())
		}
	}
	log.Info("Environment reset")
	return map[string]any{"id": id, "ok": true, "value": "reset"}
}

// appendTrace adds a trace and enforces the maxTraces cap.
func (c *Core) appendTrace(t *Trace) {
	c.traces = append(c.traces, t)
	if len(c.traces) > c.maxTraces {
		// Drop oldest traces
		excess := len(c.traces) - c.maxTraces
		c.traces = c.traces[excess:]
	}
}

func traceToGo(t *Trace) map[string]any {
	steps := make([]any, len(t.Steps))
	for i, s := range t.Steps {
		steps[i] = map[string]any{"depth": s.Depth, "input": s.Input, "output": s.Output}
	}
	m := map[string]any{
		"id":        t.ID,
		"entry":     t.Entry,
		"result":    t.Result,
		"steps":     steps,
		"timestamp": t.Timestamp,
	}
	if t.Error != "" {
		m["error"] = t.Error
	}
	return m
}

func valueResponse(id string, v Value) map[string]any {
	resp := map[string]any{
		"id":    id,
		"ok":    true,
		"value": v.String(),
		"kind":  v.KindName(),
	}
	if v.Kind == ValErr {
		resp["error_kind"] = v.ErrKind.String()
	}
	return resp
}

func errorResponse(id, errMsg string) map[string]any {
	return map[string]any{"id": id, "ok": false, "error": errMsg}
}

// --- Connection handling ---

func (c *Core) handleConnection(conn net.Conn) {
	defer func() {
		c.connMu.Lock()
		delete(c.conns, conn)
		c.connMu.Unlock()
		conn.Close()
	}()

	limiter := rate.NewLimiter(c.limit, c.burst)
	logger := log.WithField("remote", fmt.Sprint(conn.RemoteAddr()))
	logger.Debug("Client connected")

	for {
		msg, err := ReadMsg(conn)
		if err != nil {
			if err != io.EOF {
				select {
				case <-c.done:
				default:
					logger.WithError(err).Warn("Read client message failed")
				}
			}
			return
		}

		var resp map[string]any
		if limiter.Allow() {
			resp = c.sendToActor(msg)
		} else {
			id, _ := msg["id"].(string)
			resp = errorResponse(id, "rate limit exceeded")
		}
		if err := WriteMsg(conn, resp); err != nil {
			logger.WithError(err).Warn("Write client response failed")
			return
		}
	}
}
