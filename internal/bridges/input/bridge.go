package input

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-input/internal/graph"
	"github.com/nerrad567/gray-logic-input/internal/hardware"
)

// DefaultPollInterval bounds how long a detached binding keeps running.
const DefaultPollInterval = time.Second

// BindOptions holds what Bind needs besides the device node.
type BindOptions struct {
	// Adapter resolves physical paths to devices.
	Adapter hardware.Adapter

	// PollInterval is how often the device goroutine checks for
	// cancellation. Default: 1 second.
	PollInterval time.Duration

	// Logger is optional.
	Logger Logger
}

// DeviceBinding connects one input_device node to its hardware.
//
// It owns the device goroutine and the subscription on "send_event". Close
// removes the subscription and then signals the goroutine, which exits at
// its next poll tick.
type DeviceBinding struct {
	node         *graph.Node
	physicalPath string
	adapter      hardware.Adapter
	pollInterval time.Duration
	logger       Logger

	sendHandle graph.Handle
	stop       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once

	eventsRouted atomic.Uint64
	commandsSent atomic.Uint64
}

type readResult struct {
	event hardware.Event
	err   error
}

// Bind resolves the node's device, subscribes to its send_event property and
// starts the device goroutine.
//
// Returns ErrMissingAttribute if the node has no physical_path or no
// send_event property, and ErrDeviceNotFound if no present device matches.
func Bind(node *graph.Node, opts BindOptions) (*DeviceBinding, error) {
	if opts.Adapter == nil {
		return nil, fmt.Errorf("adapter is required")
	}

	physicalPath, ok := node.GetString(PropPhysicalPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, PropPhysicalPath, node.ID)
	}
	if _, ok := node.Property(PropSendEvent); !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrMissingAttribute, PropSendEvent, node.ID)
	}

	dev, err := hardware.FindByPhysicalPath(opts.Adapter, physicalPath)
	if err != nil {
		if errors.Is(err, hardware.ErrDeviceNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, physicalPath)
		}
		return nil, err
	}

	stream, err := dev.EventStream()
	if err != nil {
		dev.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("opening event stream for %s: %w", physicalPath, err)
	}

	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	b := &DeviceBinding{
		node:         node,
		physicalPath: physicalPath,
		adapter:      opts.Adapter,
		pollInterval: interval,
		logger:       orNoop(opts.Logger),
		stop:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}

	b.sendHandle, _ = node.Subscribe(PropSendEvent, b.handleSendEvent)

	go b.run(stream)

	return b, nil
}

// NodeID returns the id of the bound device node.
func (b *DeviceBinding) NodeID() uuid.UUID { return b.node.ID }

// PhysicalPath returns the physical path the binding resolved.
func (b *DeviceBinding) PhysicalPath() string { return b.physicalPath }

// EventsRouted returns how many events were written to the node.
func (b *DeviceBinding) EventsRouted() uint64 { return b.eventsRouted.Load() }

// CommandsSent returns how many commands reached the hardware.
func (b *DeviceBinding) CommandsSent() uint64 { return b.commandsSent.Load() }

// Done is closed once the device goroutine has exited.
func (b *DeviceBinding) Done() <-chan struct{} { return b.done }

// Close unsubscribes from send_event, then asks the device goroutine to stop.
// It does not wait; use Done for that. Safe to call multiple times.
func (b *DeviceBinding) Close() {
	b.closeOnce.Do(func() {
		b.node.Unsubscribe(PropSendEvent, b.sendHandle)

		select {
		case b.stop <- struct{}{}:
		default:
		}
	})
}

// run races the poll ticker against the next hardware event until it is
// stopped or the stream ends.
func (b *DeviceBinding) run(stream hardware.EventStream) {
	defer close(b.done)

	results := make(chan readResult)
	quit := make(chan struct{})

	// Closing the stream unblocks the pump's pending read.
	defer stream.Close() //nolint:errcheck // best-effort on shutdown
	defer close(quit)

	go pump(stream, results, quit)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case <-b.stop:
				b.logger.Debug("device binding stopped", "node_id", b.node.ID, "physical_path", b.physicalPath)
				return
			default:
			}

		case r := <-results:
			if r.err != nil {
				if errors.Is(r.err, io.EOF) {
					b.logger.Info("device event stream ended", "node_id", b.node.ID, "physical_path", b.physicalPath)
					return
				}
				b.logger.Warn("device read failed", "physical_path", b.physicalPath, "error", r.err)
				continue
			}
			b.route(r.event)
		}
	}
}

func pump(stream hardware.EventStream, results chan<- readResult, quit <-chan struct{}) {
	for {
		ev, err := stream.Next()
		select {
		case results <- readResult{event: ev, err: err}:
		case <-quit:
			return
		}
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

func (b *DeviceBinding) route(ev hardware.Event) {
	desc, ok := DescriptorFor(ev)
	if !ok {
		return
	}
	b.eventsRouted.Add(1)
	b.node.Set(PropEvent, desc.Map())
}

// handleSendEvent writes a send_event command to the hardware. Malformed
// commands and write failures are logged and dropped.
func (b *DeviceBinding) handleSendEvent(v any) {
	cmd, err := ParseSendCommand(v)
	if err != nil {
		b.logger.Debug("ignoring send_event", "node_id", b.node.ID, "error", err)
		return
	}

	// Re-resolve on every write; the handle from bind time may be stale.
	dev, err := hardware.FindByPhysicalPath(b.adapter, b.physicalPath)
	if err != nil {
		b.logger.Warn("send_event target not present", "physical_path", b.physicalPath, "error", err)
		return
	}
	defer dev.Close() //nolint:errcheck // write already done

	if err := dev.SendEvents([]hardware.Event{cmd.Event()}); err != nil {
		b.logger.Warn("send_event write failed", "physical_path", b.physicalPath, "error", err)
		return
	}
	b.commandsSent.Add(1)
}
