package modbusctrl

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	mbserver "github.com/tbrandon/mbserver"

	"github.com/arenvio/heatshell/internal/ports"
)

// Config for the Modbus controller.
type Config struct {
	SiteID string
	Addr   string
	UnitID byte // UnitID (Modbus slave/unit ID). Use an integer 1..247.
}

// Register map.
//
// Holding registers (read fn 3, write fn 6/16), ×100 fixed point:
//
//	0 temperature inside   1 temperature outside   2 temperature underground
//	3 width                4 length                5 side height
//
// Input registers (read fn 4), ×10 fixed point, clamped to int16:
//
//	0 roof flux   1 side flux   2 floor flux   3 total flux
const (
	holdingRegisterCount = 6
	inputRegisterCount   = 4
)

type Controller struct {
	svc ports.EnvelopeService
	cfg Config

	serv *mbserver.Server
}

func New(svc ports.EnvelopeService, cfg Config) (*Controller, error) {
	if cfg.UnitID == 0 {
		return nil, errors.New("modbus: UnitID is required (non-zero)")
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:1502"
	}
	return &Controller{svc: svc, cfg: cfg}, nil
}

// Run starts the Modbus server and registers handlers that apply writes
// immediately and serve reads directly from the envelope service. It blocks
// until ctx is canceled.
func (c *Controller) Run(ctx context.Context) error {
	serv := mbserver.NewServer()
	c.serv = serv

	// Register handlers BEFORE starting the TCP listener to avoid races inside
	// mbserver between handler registration and the server's goroutines.

	// Read Holding Registers (function 3) - configuration values.
	serv.RegisterFunctionHandler(3, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		data := frame.GetData()
		if len(data) < 4 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		start := int(binary.BigEndian.Uint16(data[0:2]))
		qty := int(binary.BigEndian.Uint16(data[2:4]))
		if qty == 0 || qty > 125 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		if start < 0 || start+qty > holdingRegisterCount {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		snap, err := c.svc.Get()
		if err != nil {
			return []byte{}, &mbserver.SlaveDeviceFailure
		}
		regs := make([]uint16, 0, qty)
		for i := 0; i < qty; i++ {
			addr := start + i
			switch addr {
			case 0:
				regs = append(regs, encodeFixed(snap.InsideTemperature, ConfigScale))
			case 1:
				regs = append(regs, encodeFixed(snap.OutsideTemperature, ConfigScale))
			case 2:
				regs = append(regs, encodeFixed(snap.UndergroundTemperature, ConfigScale))
			case 3:
				regs = append(regs, encodeFixed(snap.Width, ConfigScale))
			case 4:
				regs = append(regs, encodeFixed(snap.Length, ConfigScale))
			case 5:
				regs = append(regs, encodeFixed(snap.SideHeight, ConfigScale))
			default:
				return []byte{}, &mbserver.IllegalDataAddress
			}
		}
		byteCount := len(regs) * 2
		resp := make([]byte, 1+byteCount)
		resp[0] = byte(byteCount)
		for i, r := range regs {
			binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
		}
		return resp, &mbserver.Success
	})

	// Read Input Registers (function 4) - computed fluxes.
	serv.RegisterFunctionHandler(4, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		data := frame.GetData()
		if len(data) < 4 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		start := int(binary.BigEndian.Uint16(data[0:2]))
		qty := int(binary.BigEndian.Uint16(data[2:4]))
		if qty == 0 || qty > 125 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		if start < 0 || start+qty > inputRegisterCount {
			return []byte{}, &mbserver.IllegalDataAddress
		}
		snap, err := c.svc.Get()
		if err != nil {
			return []byte{}, &mbserver.SlaveDeviceFailure
		}
		regs := make([]uint16, 0, qty)
		for i := 0; i < qty; i++ {
			addr := start + i
			switch addr {
			case 0:
				regs = append(regs, encodeFixed(snap.RoofFlux, FluxScale))
			case 1:
				regs = append(regs, encodeFixed(snap.SideFlux, FluxScale))
			case 2:
				regs = append(regs, encodeFixed(snap.FloorFlux, FluxScale))
			case 3:
				regs = append(regs, encodeFixed(snap.TotalFlux, FluxScale))
			default:
				return []byte{}, &mbserver.IllegalDataAddress
			}
		}
		byteCount := len(regs) * 2
		resp := make([]byte, 1+byteCount)
		resp[0] = byte(byteCount)
		for i, r := range regs {
			binary.BigEndian.PutUint16(resp[1+i*2:1+i*2+2], r)
		}
		return resp, &mbserver.Success
	})

	// Write Single Register (function 6)
	serv.RegisterFunctionHandler(6, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		data := frame.GetData()
		if len(data) < 4 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		addr := binary.BigEndian.Uint16(data[0:2])
		value := binary.BigEndian.Uint16(data[2:4])

		if ex := c.applyRegister(int(addr), value); ex != &mbserver.Success {
			return []byte{}, ex
		}

		// echo request (address + value)
		resp := make([]byte, 4)
		copy(resp, data[0:4])
		return resp, &mbserver.Success
	})

	// Write Multiple Registers (function 16)
	serv.RegisterFunctionHandler(16, func(s *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		d := frame.GetData()
		if len(d) < 5 {
			return []byte{}, &mbserver.IllegalDataValue
		}
		start := binary.BigEndian.Uint16(d[0:2])
		quantity := binary.BigEndian.Uint16(d[2:4])
		byteCount := int(d[4])
		if byteCount != int(quantity)*2 || len(d) < 5+byteCount {
			return []byte{}, &mbserver.IllegalDataValue
		}
		for i := 0; i < int(quantity); i++ {
			addr := int(start) + i
			val := binary.BigEndian.Uint16(d[5+i*2 : 5+i*2+2])
			if ex := c.applyRegister(addr, val); ex != &mbserver.Success {
				return []byte{}, ex
			}
		}

		resp := make([]byte, 4)
		binary.BigEndian.PutUint16(resp[0:2], start)
		binary.BigEndian.PutUint16(resp[2:4], quantity)
		return resp, &mbserver.Success
	})

	// Now start listening after all handlers are registered.
	if err := serv.ListenTCP(c.cfg.Addr); err != nil {
		return fmt.Errorf("mbserver listen tcp %s: %w", c.cfg.Addr, err)
	}

	// Block until ctx.Done()
	<-ctx.Done()
	serv.Close()
	return ctx.Err()
}

func (c *Controller) applyRegister(addr int, value uint16) *mbserver.Exception {
	v := decodeFixed(value, ConfigScale)
	switch addr {
	case 0:
		c.svc.SetInsideTemperature(v)
	case 1:
		c.svc.SetOutsideTemperature(v)
	case 2:
		c.svc.SetUndergroundTemperature(v)
	case 3:
		cur, err := c.svc.Get()
		if err != nil {
			return &mbserver.SlaveDeviceFailure
		}
		if err := c.svc.SetDimensions(v, cur.Length); err != nil {
			return &mbserver.IllegalDataValue
		}
	case 4:
		cur, err := c.svc.Get()
		if err != nil {
			return &mbserver.SlaveDeviceFailure
		}
		if err := c.svc.SetDimensions(cur.Width, v); err != nil {
			return &mbserver.IllegalDataValue
		}
	case 5:
		if err := c.svc.SetSideHeight(v); err != nil {
			return &mbserver.IllegalDataValue
		}
	default:
		return &mbserver.IllegalDataAddress
	}
	return &mbserver.Success
}

// Fixed-point scales. Fluxes can reach thousands of watts, so they get a
// coarser scale to stay inside int16.
const (
	ConfigScale = 100
	FluxScale   = 10
)

func encodeFixed(v float64, scale int) uint16 {
	r := min(max(int(math.Round(v*float64(scale))), math.MinInt16), math.MaxInt16)
	return uint16(int16(r))
}

func decodeFixed(u uint16, scale int) float64 {
	i := int16(u)
	return float64(i) / float64(scale)
}
