package ports

import "github.com/arenvio/heatshell/internal/audit"

// EnvelopeService is the control-plane port used by controllers (HTTP/MQTT/etc).
type EnvelopeService interface {
	Get() (audit.Snapshot, error)
	SetInsideTemperature(float64)
	SetOutsideTemperature(float64)
	SetUndergroundTemperature(float64)
	SetDimensions(width, length float64) error
	SetSideHeight(float64) error
}
