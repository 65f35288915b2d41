package masstrace

import (
	"github.com/openms-go/featurefinder/internal/ffconfig"
	"github.com/openms-go/featurefinder/internal/ffgeom"
	"github.com/openms-go/featurefinder/internal/msmodel"
)

// medianScanPeriod returns the median RT gap between consecutive MS1
// spectra, used to convert a candidate's RT span into an expected scan
// count for the sample-rate acceptance test.
func medianScanPeriod(spectra []msmodel.Spectrum) float64 {
	if len(spectra) < 2 {
		return 1
	}
	gaps := make([]float64, 0, len(spectra)-1)
	for i := 1; i < len(spectra); i++ {
		gaps = append(gaps, spectra[i].RT-spectra[i-1].RT)
	}
	period := ffgeom.Median(gaps)
	if period <= 0 {
		return 1
	}
	return period
}

// accept applies spec.md §4.2's acceptance rule: length >= min_trace_length,
// and length >= min_sample_rate * (RT span / median scan period + 1), the
// second factor being the number of scans the span covers.
func accept(points []msmodel.TracePoint, medianPeriod float64, params *ffconfig.FeatureDetectionParams) bool {
	n := len(points)
	if n < params.MinTraceLength {
		return false
	}

	minRT, maxRT := points[0].RT, points[0].RT
	for _, p := range points {
		if p.RT < minRT {
			minRT = p.RT
		}
		if p.RT > maxRT {
			maxRT = p.RT
		}
	}
	span := maxRT - minRT
	expectedScans := span/medianPeriod + 1
	return float64(n) >= params.MinSampleRate*expectedScans
}
