package http

import (
	"bytes"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-api/internal/domain"
)

func respuestaDeError(t *testing.T, err error) (int, string) {
	t.Helper()
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, err)
	})
	resp, reqErr := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, reqErr)
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	require.NoError(t, readErr)
	return resp.StatusCode, string(body)
}

// Un error sin mapeo a dominio responde 500 con un mensaje genérico: el
// detalle interno (DSN, SQL, rutas) va al log, nunca al cliente.
func TestRespondError_ErrorSinMapear_NoFiltraDetalle(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	detalle := "dial tcp 10.0.0.7:5432: connect: connection refused"
	status, body := respuestaDeError(t, errors.New(detalle))

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Contains(t, body, "INTERNAL")
	assert.Contains(t, body, "error interno")
	assert.NotContains(t, body, detalle)

	// El detalle sí queda registrado para el operador.
	assert.Contains(t, buf.String(), "connection refused")
	assert.Contains(t, buf.String(), "/boom")
}

func TestRespondError_ErroresDeDominioConservanSuCodigo(t *testing.T) {
	status, body := respuestaDeError(t, domain.ErrInvalidLinkage)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "INVALID_LINKAGE")
}
