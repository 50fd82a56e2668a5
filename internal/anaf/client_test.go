package anaf

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"efactura/internal/config"
)

type staticTokens struct{ token string }

func (s staticTokens) ValidAccessToken(ctx context.Context, userID int64) (string, error) {
	return s.token, nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cli := NewHTTPClient(config.AnafConfig{
		BaseURL:            srv.URL,
		ListTimeoutSec:     5,
		DownloadTimeoutSec: 5,
	}, staticTokens{token: "tok"})
	return cli, srv
}

func TestListMessages(t *testing.T) {
	t.Run("returns messages and propagates auth header", func(t *testing.T) {
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "123456", r.URL.Query().Get("cif"))
			assert.Equal(t, "60", r.URL.Query().Get("zile"))
			assert.Equal(t, "1", r.URL.Query().Get("pagina"))
			fmt.Fprint(w, `{"mesaje":[{"id":"5001","data_creare":"202501170930","tip":"FACTURA PRIMITA","detalii":"Factura cu id_incarcare=5001 emisa de cif_emitent=32640679 pentru cif_beneficiar=51331025"}],"numar_total_pagini":1}`)
		})

		page, err := cli.ListMessages(context.Background(), 1, "123456", 60, 1)
		require.NoError(t, err)
		assert.False(t, page.EndOfPages)
		require.Len(t, page.Messages, 1)
		assert.Equal(t, "5001", page.Messages[0].ID)
	})

	t.Run("page beyond total is end of pages, not an error", func(t *testing.T) {
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"eroare":"Pagina solicitata 2 este mai mare decat numarul total de pagini 1","titlu":"lista mesaje"}`)
		})

		page, err := cli.ListMessages(context.Background(), 1, "123456", 60, 2)
		require.NoError(t, err)
		assert.True(t, page.EndOfPages)
		assert.Empty(t, page.Messages)
	})

	t.Run("genuine provider error aborts", func(t *testing.T) {
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"eroare":"CIF introdus nu este valid"}`)
		})

		_, err := cli.ListMessages(context.Background(), 1, "bogus", 60, 1)
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("non-200 status is a protocol error", func(t *testing.T) {
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		})

		_, err := cli.ListMessages(context.Background(), 1, "123456", 60, 1)
		assert.ErrorIs(t, err, ErrProtocol)
	})

	t.Run("malformed body is a protocol error", func(t *testing.T) {
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>not json</html>`)
		})

		_, err := cli.ListMessages(context.Background(), 1, "123456", 60, 1)
		assert.ErrorIs(t, err, ErrProtocol)
	})
}

func TestDownloadArtifact(t *testing.T) {
	t.Run("returns raw bytes", func(t *testing.T) {
		payload := []byte("PK\x03\x04archive-bytes")
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "5001", r.URL.Query().Get("id"))
			w.Write(payload)
		})

		got, err := cli.DownloadArtifact(context.Background(), 1, "5001")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("non-200 status fails", func(t *testing.T) {
		cli, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		})

		_, err := cli.DownloadArtifact(context.Background(), 1, "nope")
		assert.Error(t, err)
	})
}

func TestMessageCreationDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *time.Time
	}{
		{name: "full fixed-width timestamp", raw: "202511280924", want: timePtr(2025, 11, 28)},
		{name: "date-only prefix", raw: "20250117", want: timePtr(2025, 1, 17)},
		{name: "too short", raw: "2025", want: nil},
		{name: "garbage", raw: "notadate!!", want: nil},
		{name: "empty", raw: "", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Message{CreatedAt: tt.raw}.CreationDate()
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(*tt.want))
		})
	}
}

func TestMessageTaxIDs(t *testing.T) {
	m := Message{Details: "Factura cu id_incarcare=5638821927 emisa de cif_emitent=32640679 pentru cif_beneficiar=51331025"}
	assert.Equal(t, "32640679", m.IssuerTaxID())
	assert.Equal(t, "51331025", m.RecipientTaxID())

	// malformed details never abort, they just yield empty ids
	empty := Message{Details: "no ids in here"}
	assert.Equal(t, "", empty.IssuerTaxID())
	assert.Equal(t, "", empty.RecipientTaxID())
}

func timePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
