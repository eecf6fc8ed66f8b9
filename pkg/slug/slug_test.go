package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	cases := map[string]string{
		"Gestión Pública & Ética":       "gestion-publica-etica",
		"  Contrataciones del Estado  ": "contrataciones-del-estado",
		"Año 2025: Niñez":               "ano-2025-ninez",
		"SIAF -- Módulo II":             "siaf-modulo-ii",
		"!!!":                           "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Make(in), in)
	}
}
