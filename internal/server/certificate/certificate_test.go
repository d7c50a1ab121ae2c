package certificate

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificateID(t *testing.T) {
	assert.Equal(t, "DT-000042", CertificateID(42))
	assert.Equal(t, "DT-000001", CertificateID(1))
	assert.Equal(t, "DT-1234567", CertificateID(1234567))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "certificado-42.pdf", FileName(42))
}

func TestFormatDate(t *testing.T) {
	// 03:00 UTC on March 5th is still March 4th in Panama.
	assert.Equal(t, "3/4/2025", FormatDate(time.Date(2025, 3, 5, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "12/31/2024", FormatDate(time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC)))
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Data{
		RequestID:     42,
		CertificateID: CertificateID(42),
		Nombre:        "José Núñez",
		Cedula:        "8-123-456",
		IssuedAt:      time.Date(2025, 1, 15, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")), "pdf header")
	assert.Contains(t, string(out), "/Title (Certificado DT-000042)")
	assert.Contains(t, string(out), "/Author (DocuTrack)")
	assert.Equal(t, 1, bytes.Count(out, []byte("/Type /Page\n")), "single page")
	assert.True(t, bytes.Contains(out[len(out)-16:], []byte("%%EOF")))
}

func TestRender_NotAvailableFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, Data{RequestID: 1, CertificateID: CertificateID(1), Nombre: "N/D", Cedula: "N/D", IssuedAt: time.Now()}))
	assert.Greater(t, buf.Len(), 500)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRender_WriteError(t *testing.T) {
	err := Render(failingWriter{}, Data{RequestID: 1, CertificateID: CertificateID(1), IssuedAt: time.Now()})
	assert.ErrorContains(t, err, "disk full")
}
