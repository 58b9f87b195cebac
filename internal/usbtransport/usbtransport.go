// Package usbtransport implements framing.Transport over a real iQue
// Player USB connection using gousb.
package usbtransport

import (
	"fmt"
	"time"

	"github.com/google/gousb"
)

// VendorID and ProductID identify the iQue Player's USB bootloader/SA
// personality. OldTestVendorID covers early test-SA hardware that
// predates the current VID.
const (
	VendorID        = 0x1527
	OldTestVendorID = 0xBB3D
	ProductID       = 0xBBDB

	bulkEndpointOut = 0x02
	bulkEndpointIn  = 0x82
)

// Transport drives a single bulk IN/OUT endpoint pair against an open
// iQue Player device, implementing framing.Transport.
type Transport struct {
	ctx    *gousb.Context
	device *gousb.Device
	iface  *gousb.Interface
	closer func()
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
}

// Open finds and claims the first attached iQue Player device.
func Open() (*Transport, error) {
	ctx := gousb.NewContext()

	device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(VendorID), gousb.ID(ProductID))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: opening device: %w", err)
	}
	if device == nil {
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: no iQue Player found (VID 0x%04x PID 0x%04x)", VendorID, ProductID)
	}

	if err := device.SetAutoDetach(true); err != nil {
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: enabling auto kernel-driver detach: %w", err)
	}

	iface, closer, err := device.DefaultInterface()
	if err != nil {
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: claiming default interface: %w", err)
	}

	in, err := iface.InEndpoint(bulkEndpointIn)
	if err != nil {
		closer()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: opening bulk IN endpoint: %w", err)
	}
	out, err := iface.OutEndpoint(bulkEndpointOut)
	if err != nil {
		closer()
		device.Close()
		ctx.Close()
		return nil, fmt.Errorf("usbtransport: opening bulk OUT endpoint: %w", err)
	}

	return &Transport{
		ctx:    ctx,
		device: device,
		iface:  iface,
		closer: closer,
		in:     in,
		out:    out,
	}, nil
}

// Send writes data as a single bulk OUT transfer. timeout is currently
// advisory only: gousb endpoints block on the underlying libusb transfer,
// which has its own platform-level timeout.
func (t *Transport) Send(data []byte, timeout time.Duration) (int, error) {
	n, err := t.out.Write(data)
	if err != nil {
		return n, fmt.Errorf("usbtransport: bulk write: %w", err)
	}
	return n, nil
}

// Receive reads up to len(buf) bytes from the bulk IN endpoint.
func (t *Transport) Receive(buf []byte, timeout time.Duration) (int, error) {
	n, err := t.in.Read(buf)
	if err != nil {
		return n, fmt.Errorf("usbtransport: bulk read: %w", err)
	}
	return n, nil
}

// PacketSize reports the bulk IN endpoint's max packet size, which
// framing uses to recognize the short packet that terminates a reply.
func (t *Transport) PacketSize() int {
	return t.in.Desc.MaxPacketSize
}

// Close releases the interface and device handle.
func (t *Transport) Close() error {
	t.closer()
	if err := t.device.Close(); err != nil {
		t.ctx.Close()
		return fmt.Errorf("usbtransport: closing device: %w", err)
	}
	return t.ctx.Close()
}
