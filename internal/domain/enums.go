package domain

// Mode is the session-wide action applied to the whole queue at dispatch.
// The values double as the wire strings the host expects.
type Mode string

const (
	ModeIntake    Mode = "add"
	ModeDepletion Mode = "remove"
)

// ParseMode maps a launch-parameter or flag value to a Mode.
// The second return is false for anything other than "add" or "remove".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeIntake, ModeDepletion:
		return Mode(s), true
	default:
		return "", false
	}
}

// Symbology is the barcode/QR encoding family of a scanned code.
type Symbology string

const (
	SymbologyEAN13      Symbology = "EAN_13"
	SymbologyEAN8       Symbology = "EAN_8"
	SymbologyUPCA       Symbology = "UPC_A"
	SymbologyCode39     Symbology = "CODE_39"
	SymbologyCode128    Symbology = "CODE_128"
	SymbologyITF        Symbology = "ITF"
	SymbologyQRCode     Symbology = "QR_CODE"
	SymbologyDataMatrix Symbology = "DATA_MATRIX"
)

// AcceptedSymbologies is the detection set handed to the decode engine.
var AcceptedSymbologies = []Symbology{
	SymbologyEAN13,
	SymbologyEAN8,
	SymbologyUPCA,
	SymbologyCode39,
	SymbologyCode128,
	SymbologyITF,
	SymbologyQRCode,
	SymbologyDataMatrix,
}
