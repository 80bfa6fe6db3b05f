package domain

import "strings"

// Classify maps a manually typed code to a symbology label.
// Engine decodes carry their own reported symbology and never pass
// through here. Rules are evaluated in order, first match wins.
func Classify(code string) Symbology {
	if isDigits(code) {
		switch len(code) {
		case 13:
			return SymbologyEAN13
		case 8:
			return SymbologyEAN8
		}
	}
	if strings.HasPrefix(code, "http://") || strings.HasPrefix(code, "https://") || len(code) > 50 {
		return SymbologyQRCode
	}
	return SymbologyCode128
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
