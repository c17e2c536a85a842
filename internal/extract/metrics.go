// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

// Valency counts lexDef markers in text, structured or not.
func Valency(text string) int {
	return len(markerRe.FindAllStringIndex(text, -1))
}

// Concentration counts strict-form lexDef records in text. Every strict
// record starts with a marker, so Concentration(t) <= Valency(t).
func Concentration(text string) int {
	return len(strictRe.FindAllStringIndex(text, -1))
}
