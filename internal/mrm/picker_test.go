package mrm

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openms-go/featurefinder/internal/msmodel"
)

// gaussianChrom builds a chromatogram with a single Gaussian bump of the
// given apex intensity centered at apexRT, sampled every step RT units over
// +/- 4*sigma.
func gaussianChrom(apexRT, sigma, apexIntensity, step float64) msmodel.Chromatogram {
	var pts []msmodel.ChromPoint
	for rt := apexRT - 4*sigma; rt <= apexRT+4*sigma; rt += step {
		d := rt - apexRT
		intensity := apexIntensity*math.Exp(-d*d/(2*sigma*sigma)) + 0.5
		pts = append(pts, msmodel.ChromPoint{RT: rt, Intensity: intensity})
	}
	return msmodel.Chromatogram{Points: pts}
}

func TestPickChromatogram_EmptyReturnsEmptyNoError(t *testing.T) {
	picked, err := PickChromatogram(context.Background(), msmodel.Chromatogram{}, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, picked.Peaks)
}

func TestPickChromatogram_NonMonotonicRTIsMalformed(t *testing.T) {
	chrom := msmodel.Chromatogram{Points: []msmodel.ChromPoint{
		{RT: 1, Intensity: 10}, {RT: 0.5, Intensity: 20}, {RT: 2, Intensity: 5},
	}}
	_, err := PickChromatogram(context.Background(), chrom, DefaultParams())
	require.Error(t, err)
}

func TestPickChromatogram_InvalidParamsRejected(t *testing.T) {
	params := DefaultParams()
	params.PeakWidth = 0
	_, err := PickChromatogram(context.Background(), gaussianChrom(10, 1, 100, 0.2), params)
	require.Error(t, err)
}

func TestPickChromatogram_CrawdadWithoutExternalPickerErrors(t *testing.T) {
	params := DefaultParams().WithMethod(Crawdad)
	_, err := PickChromatogram(context.Background(), gaussianChrom(10, 1, 100, 0.2), params)
	require.Error(t, err)
}

func TestPickChromatogram_CrawdadDelegatesToExternalPicker(t *testing.T) {
	stub := &stubPicker{result: msmodel.PickedChromatogram{
		Peaks: []msmodel.PickedChromatogramPeak{{ApexRT: 5, ApexIntensity: 10, Area: 1, LeftRT: 4, RightRT: 6}},
	}}
	params := DefaultParams().WithMethod(Crawdad).WithExternalPicker(stub)
	picked, err := PickChromatogram(context.Background(), gaussianChrom(10, 1, 100, 0.2), params)
	require.NoError(t, err)
	require.Len(t, picked.Peaks, 1)
	assert.True(t, stub.called)
}

type stubPicker struct {
	called bool
	result msmodel.PickedChromatogram
}

func (s *stubPicker) Name() string { return "stub" }
func (s *stubPicker) PickChromatogram(msmodel.Chromatogram, *Params) (msmodel.PickedChromatogram, error) {
	s.called = true
	return s.result, nil
}

func TestPickLegacy_SingleBumpYieldsOnePeakWithValidBoundaries(t *testing.T) {
	chrom := gaussianChrom(10, 1, 1000, 0.25)
	params := DefaultParams().WithPeakWidth(2.0)

	picked, err := PickChromatogram(context.Background(), chrom, params)
	require.NoError(t, err)
	require.Len(t, picked.Peaks, 1)

	p := picked.Peaks[0]
	assert.Less(t, p.LeftRT, p.ApexRT)
	assert.Less(t, p.ApexRT, p.RightRT)
	assert.Greater(t, p.Area, 0.0)
	assert.InDelta(t, 10, p.ApexRT, 0.3)
}

func TestPickLegacy_BelowNoiseFloorIsDiscarded(t *testing.T) {
	chrom := gaussianChrom(10, 1, 0.01, 0.25)
	params := DefaultParams()
	picked, err := PickChromatogram(context.Background(), chrom, params)
	require.NoError(t, err)
	assert.Empty(t, picked.Peaks)
}

func TestPickLegacy_TwoSeparatedBumpsYieldTwoPeaks(t *testing.T) {
	var pts []msmodel.ChromPoint
	a := gaussianChrom(10, 0.5, 1000, 0.1)
	b := gaussianChrom(30, 0.5, 1000, 0.1)
	pts = append(pts, a.Points...)
	pts = append(pts, b.Points...)
	chrom := msmodel.Chromatogram{Points: pts}

	params := DefaultParams().WithPeakWidth(1.0)
	picked, err := PickChromatogram(context.Background(), chrom, params)
	require.NoError(t, err)
	require.Len(t, picked.Peaks, 2)
}

func TestPickCorrected_SingleBumpYieldsOnePeakWithValidBoundaries(t *testing.T) {
	chrom := gaussianChrom(10, 1, 1000, 0.25)
	params := DefaultParams().WithMethod(Corrected)

	picked, err := PickChromatogram(context.Background(), chrom, params)
	require.NoError(t, err)
	require.Len(t, picked.Peaks, 1)

	p := picked.Peaks[0]
	assert.Less(t, p.LeftRT, p.ApexRT)
	assert.Less(t, p.ApexRT, p.RightRT)
	assert.Greater(t, p.Area, 0.0)
	assert.InDelta(t, 10, p.ApexRT, 0.3)
	assert.Greater(t, p.ApexIntensity, 500.0)
}

func TestPickCorrected_BelowNoiseFloorIsDiscarded(t *testing.T) {
	chrom := gaussianChrom(10, 1, 0.01, 0.25)
	params := DefaultParams().WithMethod(Corrected)
	picked, err := PickChromatogram(context.Background(), chrom, params)
	require.NoError(t, err)
	assert.Empty(t, picked.Peaks)
}

func TestPickChromatogram_CancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PickChromatogram(ctx, gaussianChrom(10, 1, 100, 0.2), DefaultParams())
	require.Error(t, err)
}

func TestPickMany_ProcessesEveryChromatogram(t *testing.T) {
	chroms := []msmodel.Chromatogram{
		gaussianChrom(10, 1, 1000, 0.25),
		gaussianChrom(20, 1, 1000, 0.25),
	}
	results, err := PickMany(context.Background(), chroms, DefaultParams())
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Len(t, r.Peaks, 1)
	}
}
