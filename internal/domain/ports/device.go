package ports

import "context"

// Device is a managed CPE resolved through the ACS
type Device struct {
	ID           string
	SerialNumber string
}

// ParameterValue is one TR-069 parameter write: path, value and XSD type
type ParameterValue struct {
	Path  string
	Value interface{}
	Type  string
}

// DeviceControlPlane wraps the ACS's CPE lookup and parameter operations.
// Lookup misses are reported as domain.ErrNotFound.
type DeviceControlPlane interface {
	// FindDeviceByPhone resolves a CPE through its phone-number tag
	FindDeviceByPhone(ctx context.Context, phone string) (*Device, error)
	// FindDeviceByPPPoE resolves a CPE through its PPPoE username parameter
	FindDeviceByPPPoE(ctx context.Context, username string) (*Device, error)
	SetParameters(ctx context.Context, deviceID string, params []ParameterValue) error
}
