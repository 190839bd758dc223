package capabilities

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSeedParsesCapabilityTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/llsd+xml", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(`<?xml version="1.0"?><llsd><map><key>GetTexture</key><string>https://sim.example/cap/abc</string></map></llsd>`))
	}))
	defer srv.Close()

	client := NewClient()
	table, err := client.Seed(context.Background(), srv.URL, DefaultCapabilityNames)
	require.NoError(t, err)

	u, ok := table.URL(GetTexture)
	require.True(t, ok)
	require.Equal(t, "https://sim.example/cap/abc", u)
}

func TestMustURLErrorsWhenCapabilityMissing(t *testing.T) {
	table := Table{urls: map[string]string{}}
	_, err := table.MustURL(GetTexture)
	require.Error(t, err)
}

func TestFetchTextureAppendsQueryParam(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("texture_id")
		w.Write([]byte("jp2k-bytes"))
	}))
	defer srv.Close()

	table := Table{urls: map[string]string{GetTexture: srv.URL}}
	client := NewClient()
	data, err := client.FetchTexture(context.Background(), table, "11111111-2222-3333-4444-555555555555")
	require.NoError(t, err)
	require.Equal(t, "jp2k-bytes", string(data))
	require.Equal(t, "11111111-2222-3333-4444-555555555555", gotQuery)
}
