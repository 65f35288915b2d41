package elution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

func gaussianBump(n int, centerIdx float64, sigma, amplitude, floor float64) []msmodel.TracePoint {
	points := make([]msmodel.TracePoint, n)
	for i := 0; i < n; i++ {
		dx := (float64(i) - centerIdx) / sigma
		points[i] = msmodel.TracePoint{
			SpectrumIndex: i,
			RT:            float64(i),
			MZ:            500,
			Intensity:     floor + amplitude*math.Exp(-dx*dx/2),
		}
	}
	return points
}

func baseParams() *ffconfig.FeatureDetectionParams {
	p := ffconfig.DefaultFeatureDetectionParams()
	p.ChromFWHM = 3
	p.ChromPeakSNR = 2
	p.WidthFiltering = ffconfig.WidthFilterOff
	p.NoiseWindowWidth = 20
	return p
}

func TestSplit_DisabledPassesTraceThroughUnchanged(t *testing.T) {
	params := baseParams()
	params.EnableElutionSplitting = false
	tr := msmodel.NewMassTrace(gaussianBump(30, 15, 3, 1000, 5))

	peaks := Split([]*msmodel.MassTrace{tr}, params)
	require.Len(t, peaks, 1)
	assert.Same(t, tr, peaks[0].Trace)
	assert.Equal(t, tr.Points[0].RT, peaks[0].LeftRT)
	assert.Equal(t, tr.Points[len(tr.Points)-1].RT, peaks[0].RightRT)
}

func TestSplit_ShortTraceEmittedUnchanged(t *testing.T) {
	params := baseParams()
	tr := msmodel.NewMassTrace(gaussianBump(3, 1, 1, 1000, 5))

	peaks := Split([]*msmodel.MassTrace{tr}, params)
	require.Len(t, peaks, 1)
	assert.Equal(t, tr.Points[0].RT, peaks[0].LeftRT)
}

func TestSplit_NoMaximumAboveThresholdIsDiscarded(t *testing.T) {
	params := baseParams()
	params.ChromPeakSNR = 1000 // impossibly high threshold
	tr := msmodel.NewMassTrace(gaussianBump(40, 20, 3, 1000, 5))

	peaks := Split([]*msmodel.MassTrace{tr}, params)
	assert.Empty(t, peaks)
}

func TestSplit_SingleBumpProducesOnePeak(t *testing.T) {
	params := baseParams()
	tr := msmodel.NewMassTrace(gaussianBump(40, 20, 3, 1000, 5))

	peaks := Split([]*msmodel.MassTrace{tr}, params)
	require.Len(t, peaks, 1)
	assert.Greater(t, peaks[0].Area, 0.0)
	assert.True(t, peaks[0].LeftRT < peaks[0].ApexRT() && peaks[0].ApexRT() < peaks[0].RightRT)
}

func TestSplit_TwoBumpsProduceTwoPeaks(t *testing.T) {
	params := baseParams()
	params.ChromFWHM = 2

	n := 60
	points := make([]msmodel.TracePoint, n)
	for i := 0; i < n; i++ {
		a := gaussianBump(n, 15, 2.5, 1000, 0)[i].Intensity
		b := gaussianBump(n, 45, 2.5, 1000, 0)[i].Intensity
		points[i] = msmodel.TracePoint{SpectrumIndex: i, RT: float64(i), MZ: 500, Intensity: a + b + 5}
	}
	tr := msmodel.NewMassTrace(points)

	peaks := Split([]*msmodel.MassTrace{tr}, params)
	require.Len(t, peaks, 2)
	assert.Less(t, peaks[0].ApexRT(), peaks[1].ApexRT())

	// Every centroid belongs to at most one peak: the peaks' RT ranges must
	// not overlap.
	assert.LessOrEqual(t, peaks[0].RightRT, peaks[1].LeftRT)
}

func TestSplit_FixedWidthFilteringDropsOutOfRangePeaks(t *testing.T) {
	params := baseParams()
	params.WidthFiltering = ffconfig.WidthFilterFixed
	params.MinPeakWidth = 1000 // no real peak is this wide, so none will qualify
	params.MaxPeakWidth = 2000
	tr := msmodel.NewMassTrace(gaussianBump(40, 20, 3, 1000, 5))

	peaks := Split([]*msmodel.MassTrace{tr}, params)
	assert.Empty(t, peaks)
}

func TestSplit_AutoWidthFilteringKeepsMostPeaks(t *testing.T) {
	params := baseParams()
	params.WidthFiltering = ffconfig.WidthFilterAuto

	var traces []*msmodel.MassTrace
	for i := 0; i < 10; i++ {
		traces = append(traces, msmodel.NewMassTrace(gaussianBump(40, 20, 3, 1000, 5)))
	}
	peaks := Split(traces, params)
	assert.NotEmpty(t, peaks)
	assert.LessOrEqual(t, len(peaks), 10)
}

func TestSplit_EmptyTraceListReturnsNoPeaks(t *testing.T) {
	params := baseParams()
	peaks := Split(nil, params)
	assert.Empty(t, peaks)
}
