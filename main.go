// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"zeoscribe/cmd"
	"zeoscribe/internal/actuator"
	"zeoscribe/internal/config"
	"zeoscribe/internal/eeg"
	applog "zeoscribe/internal/log"
	"zeoscribe/internal/plugin"
	"zeoscribe/internal/source"
	"zeoscribe/internal/transport"
	"zeoscribe/internal/transport/udp"
	"zeoscribe/internal/tui"
	"zeoscribe/pkg/build"
)

// main is the entry point for the Zeo bridge.
// The program flow is divided into three phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Choose the headband and actuator settings
//
// 2. Running Phase:
//   - Sample the headband once per cycle
//   - Serve channels over the enabled bridges
//
// 3. Shutdown Phase:
//   - Handle termination signals
//   - Stop the bridges, dispose the channels
func main() {
	// ==================== STARTUP PHASE ====================

	if err := build.Initialize(); err != nil {
		applog.Debugf("Development build: %v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatal(err)
	}
	switch opts.Command {
	case cmd.CommandRun, cmd.CommandPorts:
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags())
		return
	default:
		// --help or --version already printed
		return
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		applog.Fatal(err)
	}
	opts.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		applog.Fatalf("invalid configuration: %v", err)
	}
	applog.SetLevel(cfg.Level())

	if opts.Command == cmd.CommandPorts {
		if err := listPorts(cfg); err != nil {
			applog.Fatal(err)
		}
		return
	}

	var configurator plugin.Configurator = plugin.StaticConfigurator{
		Selection: plugin.Selection{Port: cfg.Device.Port, Actuator: cfg.Actuator},
	}
	if cfg.Device.Interactive || cfg.Device.Port == "" {
		configurator = tui.PortDialog{
			List:       actuator.ListPorts,
			Recordings: cfg.Device.Recordings,
			Defaults:   cfg.Actuator,
		}
	}

	selector := source.NewSelector(cfg.SourceConfig())
	device := plugin.NewDevice(configurator, selector, actuator.OpenSerial,
		eeg.WithInterval(cfg.Device.CycleInterval))
	registry := plugin.NewRegistry(device, plugin.RawOptions{
		Enabled: cfg.Raw.Enabled,
		Color:   cfg.Raw.Color,
	}, nil)

	if ok, err := registry.Initialize(); !ok {
		registry.Dispose()
		if err != nil {
			applog.Fatal(err)
		}
		applog.Fatalf("Zeo device did not initialize")
	}
	applog.Infof("Reading %s, serving %d channels", device.Selection().Port, len(registry.Names()))

	// ==================== RUNNING PHASE ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	b, err := startBridges(cfg, registry)
	if err != nil {
		b.stopPublisher()
		registry.Dispose()
		b.close()
		applog.Fatal(err)
	}

	<-done

	// ==================== SHUTDOWN PHASE ====================

	applog.Infof("Shutting down")
	b.stopPublisher()
	registry.Dispose()
	b.close()
}

// bridges holds the running host bridges.
type bridges struct {
	publisher  *udp.Publisher
	sender     *udp.Sender
	transports []transport.Transport
	forwarders sync.WaitGroup
}

// startBridges starts every enabled bridge. On error the returned bridges
// still hold whatever started and must be shut down.
func startBridges(cfg *config.Config, registry *plugin.Registry) (*bridges, error) {
	b := &bridges{}

	forward := func(t transport.Transport) {
		b.transports = append(b.transports, t)
		sub := registry.Device().SubscribeDropping()
		b.forwarders.Add(1)
		go func() {
			defer b.forwarders.Done()
			transport.Forward(sub, t)
		}()
	}

	if cfg.Transport.WebSocketEnabled {
		var raw transport.Drainer
		if cfg.Raw.Enabled {
			raw = registry.Raw()
		}
		wst, err := transport.NewWebSocketTransport(cfg.Transport.WebSocketAddress, registry, raw)
		if err != nil {
			return b, err
		}
		forward(wst)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return b, err
		}
		publisher, err := udp.NewPublisher(cfg.Transport.UDPSendInterval, sender, registry)
		if err != nil {
			sender.Close()
			return b, err
		}
		b.sender, b.publisher = sender, publisher
		publisher.Start()
	}

	if len(b.transports) == 0 && b.publisher == nil {
		forward(transport.NewLoggingTransport())
	}
	return b, nil
}

func (b *bridges) stopPublisher() {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Stop(); err != nil {
		applog.Errorf("Error stopping UDP publisher: %v", err)
	}
	if err := b.sender.Close(); err != nil {
		applog.Errorf("Error closing UDP sender: %v", err)
	}
}

// close waits for the forwarders, which end when the engine closes its
// subscriptions, then closes every transport.
func (b *bridges) close() {
	b.forwarders.Wait()
	for _, t := range b.transports {
		if err := t.Close(); err != nil {
			applog.Errorf("Error closing transport: %v", err)
		}
	}
}

// listPorts prints the headband sources and the serial ports available to
// the actuator.
func listPorts(cfg *config.Config) error {
	serial, err := actuator.ListPorts()
	if err != nil {
		return err
	}
	for _, p := range append([]string{source.SimulatorPort}, cfg.Device.Recordings...) {
		fmt.Printf("%-10s %s\n", source.Kind(p), p)
	}
	for _, p := range serial {
		fmt.Printf("%-10s %s\n", "actuator", p)
	}
	return nil
}
