// Package topology models the network inventory as an immutable, indexed graph
// of devices, ports, cable paths, locations and sites.
package topology

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTopology is matched by every structural or referential build error.
	ErrInvalidTopology = errors.New("invalid topology")

	// ErrInvalidRearPort is returned when a front port does not pass through
	// to a rear port of the same device.
	ErrInvalidRearPort = errors.New("front port must reference a rear port of the same device")
)

// MissingDeviceReferenceError is returned when a link segment names a device
// index that has not been appended.
type MissingDeviceReferenceError struct {
	Device int
}

func (e *MissingDeviceReferenceError) Error() string {
	return fmt.Sprintf("no device with index %d defined", e.Device)
}

func (e *MissingDeviceReferenceError) Is(target error) bool {
	return target == ErrInvalidTopology
}

// MissingPortReferenceError is returned when a link segment names a port index
// beyond the port count of its device.
type MissingPortReferenceError struct {
	Device int
	Port   int
}

func (e *MissingPortReferenceError) Error() string {
	return fmt.Sprintf("device %d has no port %d", e.Device, e.Port)
}

func (e *MissingPortReferenceError) Is(target error) bool {
	return target == ErrInvalidTopology
}

// InvalidPathError is returned when a segment does not start on the device
// where the previous segment ended.
type InvalidPathError struct {
	LastDevice    int
	CurrentDevice int
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("cannot connect port of device %d to port of device %d", e.LastDevice, e.CurrentDevice)
}

func (e *InvalidPathError) Is(target error) bool {
	return target == ErrInvalidTopology
}

// MissingDeviceTypeError is returned by Build when a device has no device type
// or references an unknown one.
type MissingDeviceTypeError struct {
	DeviceID   uint32
	DeviceType uint32
	Unset      bool
}

func (e *MissingDeviceTypeError) Error() string {
	if e.Unset {
		return fmt.Sprintf("device %d has no device type", e.DeviceID)
	}
	return fmt.Sprintf("device %d references unknown device type %d", e.DeviceID, e.DeviceType)
}

func (e *MissingDeviceTypeError) Is(target error) bool {
	return target == ErrInvalidTopology
}
