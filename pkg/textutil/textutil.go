// Package textutil normaliza texto para búsquedas insensibles a acentos y
// mayúsculas (catálogos con nombres en español: "Azúcar" debe encontrarse
// buscando "azucar").
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold quita diacríticos y pasa a minúsculas. Si la transformación falla
// (entrada no UTF-8 válida) devuelve la entrada en minúsculas tal cual.
func Fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(out)
}
