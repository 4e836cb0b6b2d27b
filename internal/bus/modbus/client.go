// Package modbus adapts github.com/goburrow/modbus into the read/write
// primitives the software bus needs: holding-register reads for inbound
// messages, holding-register writes for outbound telemetry.
//
// Grounded on internal/writer/modbus/client.go's mutex-guarded
// EndpointClient (one TCP connection serializing requests because it
// mutates SlaveId per call); the read side is added here since the
// teacher's poller used a separate bespoke transport for reads while
// this app multiplexes both directions over one endpoint.
package modbus

import (
	"errors"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is a single TCP connection to one bus endpoint.
type EndpointClient struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// Config is the minimal transport config an EndpointClient needs.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewEndpointClient dials cfg.Endpoint and returns a connected client.
func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("bus modbus: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &EndpointClient{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Close closes the underlying TCP connection.
func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// ReadHoldingRegisters reads qty registers starting at addr from unitID.
func (c *EndpointClient) ReadHoldingRegisters(unitID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	raw, err := c.client.ReadHoldingRegisters(addr, qty)
	if err != nil {
		return nil, err
	}
	return unpackRegisters(raw), nil
}

// WriteRegisters writes regs starting at addr on unitID.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID

	qty := uint16(len(regs))
	payload := packRegisters(regs)

	_, err := c.client.WriteMultipleRegisters(addr, qty, payload)
	return err
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
