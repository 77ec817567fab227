package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeJSONToleratesUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ahmed","legacy_field":true}`))

	var body struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(r, &body))
	require.Equal(t, "Ahmed", body.Name)
}

func TestDecodeJSONRejectsTrailingData(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ahmed"}{"name":"again"}`))

	var body struct {
		Name string `json:"name"`
	}
	require.Error(t, DecodeJSON(r, &body))
}
