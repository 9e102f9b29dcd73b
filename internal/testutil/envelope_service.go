package testutil

import "github.com/arenvio/heatshell/internal/audit"

// FakeEnvelopeService is a reusable fake implementing ports.EnvelopeService.
// Put ONLY what multiple test packages need here.
type FakeEnvelopeService struct {
	S      audit.Snapshot
	GetErr error

	SetInsideCalled bool
	SetInsideArg    float64

	SetOutsideCalled bool
	SetOutsideArg    float64

	SetUndergroundCalled bool
	SetUndergroundArg    float64

	SetDimensionsCalled bool
	SetDimensionsWidth  float64
	SetDimensionsLength float64
	SetDimensionsErr    error

	SetSideHeightCalled bool
	SetSideHeightArg    float64
	SetSideHeightErr    error
}

func NewFakeEnvelopeService() *FakeEnvelopeService {
	return &FakeEnvelopeService{
		S: audit.Snapshot{
			InsideTemperature:      20,
			OutsideTemperature:     10,
			UndergroundTemperature: 15,
			Width:                  5,
			Length:                 4,
			SideHeight:             3,
			RoofFlux:               39.12,
			SideFlux:               1403.5,
			FloorFlux:              409.84,
			TotalFlux:              1852.46,
		},
	}
}

func (f *FakeEnvelopeService) Get() (audit.Snapshot, error) {
	if f.GetErr != nil {
		return audit.Snapshot{}, f.GetErr
	}
	return f.S, nil
}

func (f *FakeEnvelopeService) SetInsideTemperature(v float64) {
	f.SetInsideCalled = true
	f.SetInsideArg = v
	f.S.InsideTemperature = v
}

func (f *FakeEnvelopeService) SetOutsideTemperature(v float64) {
	f.SetOutsideCalled = true
	f.SetOutsideArg = v
	f.S.OutsideTemperature = v
}

func (f *FakeEnvelopeService) SetUndergroundTemperature(v float64) {
	f.SetUndergroundCalled = true
	f.SetUndergroundArg = v
	f.S.UndergroundTemperature = v
}

func (f *FakeEnvelopeService) SetDimensions(width, length float64) error {
	f.SetDimensionsCalled = true
	f.SetDimensionsWidth = width
	f.SetDimensionsLength = length
	if f.SetDimensionsErr != nil {
		return f.SetDimensionsErr
	}
	f.S.Width = width
	f.S.Length = length
	return nil
}

func (f *FakeEnvelopeService) SetSideHeight(v float64) error {
	f.SetSideHeightCalled = true
	f.SetSideHeightArg = v
	if f.SetSideHeightErr != nil {
		return f.SetSideHeightErr
	}
	f.S.SideHeight = v
	return nil
}
