package models

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidIPv4(t *testing.T) {
	assert.True(t, ValidIPv4("10.0.0.1"))
	assert.True(t, ValidIPv4("192.168.254.254"))
	assert.False(t, ValidIPv4("10.0.0"))
	assert.False(t, ValidIPv4("10.0.0.256"))
	assert.False(t, ValidIPv4("::1"))
	assert.False(t, ValidIPv4(""))
}

func TestValidMAC(t *testing.T) {
	assert.True(t, ValidMAC("AA:BB:CC:DD:EE:FF"))
	assert.True(t, ValidMAC("aa:bb:cc:dd:ee:ff"))
	assert.True(t, ValidMAC(""))
	assert.False(t, ValidMAC("AABBCCDDEEFF"))
	assert.False(t, ValidMAC("ZZ:11:22:33:44:55"))
	assert.False(t, ValidMAC("AA-BB-CC-DD-EE-FF"))
	assert.False(t, ValidMAC("AA:BB:CC:DD:EE"))
	assert.False(t, ValidMAC("AA:BB:CC:DD:EE:FF:00"))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusInternalServerError, "Failed to fetch data", "connection refused")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Failed to fetch data","details":"connection refused"}`, rec.Body.String())
}

func TestWriteAck(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteAck(rec, http.StatusOK, "Data upserted successfully", 1)

	assert.JSONEq(t, `{"message":"Data upserted successfully","affectedRows":1}`, rec.Body.String())
}
