// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	applog "zeoscribe/internal/log"
)

// HeaderSize is the fixed part of a packet: sequence, timestamp, count.
const HeaderSize = 4 + 8 + 2

// ValueSource supplies one value per channel, in a stable order.
type ValueSource interface {
	Values(dst []float64) []float64
}

// PacketSender transmits a packet.
type PacketSender interface {
	Send(data []byte) error
}

// Publisher periodically reads every channel value, packs them into the
// binary format below and sends them over UDP. It runs in its own goroutine
// managed by Start and Stop.
type Publisher struct {
	sender   PacketSender
	source   ValueSource
	interval time.Duration
	now      func() time.Time

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	// Reused between packets.
	values       []float64
	f32          []float32
	packetBuffer *bytes.Buffer
}

// NewPublisher creates a Publisher. An invalid interval defaults to 125ms,
// one packet per playback slot.
func NewPublisher(interval time.Duration, sender PacketSender, source ValueSource) (*Publisher, error) {
	if sender == nil {
		return nil, errors.New("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, errors.New("UDPPublisher: value source cannot be nil")
	}
	if interval <= 0 {
		interval = 125 * time.Millisecond
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s)", interval)
	return &Publisher{
		sender:       sender,
		source:       source,
		interval:     interval,
		now:          time.Now,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins publishing. Calling Start while running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	ticker, doneChan := p.ticker, p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ticker.C:
				p.publish()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to exit and waits for it.
// Safe to call multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Stopped after %d packets.", p.sequenceNum)
	return nil
}

/*
UDP Packet Structure (BigEndian)

	+----------------+-----------+--------------+-----------------------------+
	| Field          | Data Type | Size (Bytes) | Description                 |
	|----------------|-----------|--------------|-----------------------------|
	| Sequence       | uint32    | 4            | Monotonically increasing    |
	| Timestamp      | int64     | 8            | Nanoseconds since epoch     |
	| Value Count    | uint16    | 2            | Number of channels (N)      |
	| Values         | []float32 | N * 4        | Channel values, registry    |
	|                |           |              | order                       |
	+----------------+-----------+--------------+-----------------------------+
*/

func (p *Publisher) publish() {
	packet, err := p.buildPacket()
	if err != nil {
		applog.Errorf("UDPPublisher: Error packing data: %v", err)
		return
	}
	if err := p.sender.Send(packet); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packet))
	}
}

// buildPacket reads the channels and packs the next packet. The returned
// slice is valid until the next call.
func (p *Publisher) buildPacket() ([]byte, error) {
	p.values = p.source.Values(p.values)
	if len(p.values) > math.MaxUint16 {
		return nil, fmt.Errorf("too many values for one packet: %d", len(p.values))
	}
	if cap(p.f32) < len(p.values) {
		p.f32 = make([]float32, len(p.values))
	}
	p.f32 = p.f32[:len(p.values)]
	for i, v := range p.values {
		p.f32[i] = float32(v)
	}

	p.sequenceNum++
	p.packetBuffer.Reset()
	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.now().UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, uint16(len(p.f32)))
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32)
	}
	if err != nil {
		return nil, err
	}
	return p.packetBuffer.Bytes(), nil
}

// Close stops the publisher.
func (p *Publisher) Close() error {
	return p.Stop()
}

// Packet is a decoded publisher packet.
type Packet struct {
	Seq    uint32
	Time   time.Time
	Values []float32
}

// ParsePacket decodes a packet produced by a Publisher.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, fmt.Errorf("short packet: %d bytes", len(b))
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	if len(b) != HeaderSize+4*n {
		return Packet{}, fmt.Errorf("packet length %d does not match %d values", len(b), n)
	}
	pkt := Packet{
		Seq:    binary.BigEndian.Uint32(b[0:4]),
		Time:   time.Unix(0, int64(binary.BigEndian.Uint64(b[4:12]))),
		Values: make([]float32, n),
	}
	for i := range n {
		off := HeaderSize + 4*i
		pkt.Values[i] = math.Float32frombits(binary.BigEndian.Uint32(b[off : off+4]))
	}
	return pkt, nil
}

var _ interface{ Close() error } = (*Publisher)(nil)
