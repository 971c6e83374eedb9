// SPDX-License-Identifier: MIT
package actuator

import (
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// serialPort adapts a go.bug.st/serial port to Port.
type serialPort struct {
	mu   sync.Mutex
	name string
	p    serial.Port
}

// OpenSerial opens name at baud, 8N1. It satisfies OpenFunc.
func OpenSerial(name string, baud int) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port '%s': %w", name, err)
	}
	return &serialPort{name: name, p: p}, nil
}

// WriteLine writes code followed by a newline.
func (s *serialPort) WriteLine(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.p.Write([]byte(code + "\n")); err != nil {
		return fmt.Errorf("write to '%s': %w", s.name, err)
	}
	return nil
}

func (s *serialPort) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.p.Close()
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}

var _ OpenFunc = OpenSerial
