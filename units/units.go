// Package units centralizes the physical unit and level conversions
// shared by the RF component models and the test/report code, so the
// formulas exist in exactly one place.
package units

import "math"

// SpeedOfLight is the propagation speed used for all wavelength
// calculations, in metres per second (exact by definition).
const SpeedOfLight = 299792458.0

// Power returns the power carried by a complex amplitude under the
// normalized impedance convention (1 W drive has magnitude 1), i.e.
// |a|^2.
func Power(a complex128) float64 {
	return real(a)*real(a) + imag(a)*imag(a)
}

// Magnitude returns |a|.
func Magnitude(a complex128) float64 {
	return math.Hypot(real(a), imag(a))
}

// WattsToDBm converts a power in watts to dBm (dB relative to 1 mW).
func WattsToDBm(watts float64) float64 {
	return 10 * math.Log10(watts/1e-3)
}

// DBmToWatts converts a level in dBm back to watts.
func DBmToWatts(dbm float64) float64 {
	return 1e-3 * math.Pow(10, dbm/10)
}

// DbiToLinear converts an antenna gain in dBi to linear power gain.
func DbiToLinear(dbi float64) float64 {
	return math.Pow(10, dbi/10)
}

// Wavelength returns the free-space wavelength in metres for the given
// frequency in Hz.
func Wavelength(freqHz float64) float64 {
	return SpeedOfLight / freqHz
}

// PathLossAmplitude returns the one-way free-space amplitude factor
// lambda / (4 pi d). Its square is the Friis power path loss.
func PathLossAmplitude(distanceM, freqHz float64) float64 {
	return Wavelength(freqHz) / (4 * math.Pi * distanceM)
}
