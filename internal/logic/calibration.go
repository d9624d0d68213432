package logic

// Bits is the 4-bit code driven onto the filter board's data lines.
type Bits uint8

// Data line masks. D0 is the most significant bit of the code.
const (
	D0 Bits = 0x08
	D1 Bits = 0x04
	D2 Bits = 0x02
	D3 Bits = 0x01

	// BitsInvalid is returned for bands with no table entry. The data lines
	// are left untouched when it is seen.
	BitsInvalid = D0 | D1 | D2 | D3
)

// NumDataBits is the number of data lines driven from a Bits code.
const NumDataBits = 4

// Bit reports whether data line i (0 = D0 ... 3 = D3) is set.
func (b Bits) Bit(i int) bool {
	return b&(D0>>uint(i)) != 0
}

// Analog calibration, in 10-bit ADC units.
const (
	ADCTolerance = 10  // +/- window around every threshold, exclusive
	ButtonADC    = 793 // button pressed, resting divider value
)

// Calibration maps a CAT band voltage to a band and its filter code.
type Calibration struct {
	ADC  int
	Band Band
	Bits Bits
}

// calibrationTable is scanned in order; the first entry within tolerance wins.
// Bands covering two amateur allocations appear once per allocation, and
// the first entry of a band supplies its filter code. The last entry is the
// sentinel: lookups stop there.
//
// Thresholds are the FT-817 band voltage on a 13.8V supply.
var calibrationTable = [...]Calibration{
	{65, Band160, 0},
	{140, Band80, D0},
	{207, Band40, D1},
	{269, Band30_20, D0 | D1},
	{337, Band30_20, D2},
	{411, Band17_15, D0 | D2},
	{479, Band17_15, D1 | D2},
	{536, Band12_10, D0 | D1 | D2},
	{605, Band12_10, D3},
	{680, Band6, D0 | D3},
	{0, BandUnknown, BitsInvalid},
}

// CalibrationTable returns a copy of the calibration records, sentinel included.
func CalibrationTable() []Calibration {
	out := make([]Calibration, len(calibrationTable))
	copy(out, calibrationTable[:])
	return out
}

func withinTolerance(sample, ref int) bool {
	return sample > ref-ADCTolerance && sample < ref+ADCTolerance
}

// ClassifyBand returns the band whose CAT voltage matches sample, or
// BandUnknown when no entry matches.
func ClassifyBand(sample int) Band {
	for _, c := range calibrationTable {
		if c.Band == BandUnknown {
			break
		}
		if withinTolerance(sample, c.ADC) {
			return c.Band
		}
	}
	return BandUnknown
}

// ClassifyButton returns ButtonSelect when sample is within tolerance of
// the pressed-button divider value.
func ClassifyButton(sample int) ButtonEvent {
	if withinTolerance(sample, ButtonADC) {
		return ButtonSelect
	}
	return ButtonNone
}

// BitsForBand returns the filter code for band, or BitsInvalid when the
// band has no table entry.
func BitsForBand(band Band) Bits {
	for _, c := range calibrationTable {
		if c.Band == BandUnknown {
			break
		}
		if c.Band == band {
			return c.Bits
		}
	}
	return BitsInvalid
}
