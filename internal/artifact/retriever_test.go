package artifact

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	anafmocks "efactura/internal/anaf/mocks"
	"efactura/internal/model"
	"efactura/internal/storage"
	storagemocks "efactura/internal/storage/mocks"
)

func TestRetrieverFetch(t *testing.T) {
	inv := &model.Invoice{
		ExternalID:  "5001",
		ArchivePath: "7/2025/01/invoice_5001.zip",
		XMLContent:  invoiceDoc,
	}

	t.Run("live fetch wins when it succeeds", func(t *testing.T) {
		client := new(anafmocks.MockClient)
		store := new(storagemocks.MockStorage)
		client.On("DownloadArtifact", mock.Anything, int64(9), "5001").Return([]byte("live-bytes"), nil)

		got, err := NewRetriever(client, store, zap.NewNop()).Fetch(context.Background(), 9, inv)
		require.NoError(t, err)
		assert.Equal(t, []byte("live-bytes"), got)
		store.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
	})

	t.Run("falls back to the cached archive", func(t *testing.T) {
		client := new(anafmocks.MockClient)
		store := new(storagemocks.MockStorage)
		client.On("DownloadArtifact", mock.Anything, int64(9), "5001").Return(nil, errors.New("provider down"))
		store.On("Read", mock.Anything, inv.ArchivePath).Return([]byte("cached-bytes"), nil)

		got, err := NewRetriever(client, store, zap.NewNop()).Fetch(context.Background(), 9, inv)
		require.NoError(t, err)
		assert.Equal(t, []byte("cached-bytes"), got)
	})

	t.Run("synthesizes from stored text as the last rung", func(t *testing.T) {
		client := new(anafmocks.MockClient)
		store := new(storagemocks.MockStorage)
		client.On("DownloadArtifact", mock.Anything, int64(9), "5001").Return(nil, errors.New("provider down"))
		store.On("Read", mock.Anything, inv.ArchivePath).Return(nil, storage.ErrNotFound)

		got, err := NewRetriever(client, store, zap.NewNop()).Fetch(context.Background(), 9, inv)
		require.NoError(t, err)

		reader, err := zip.NewReader(bytes.NewReader(got), int64(len(got)))
		require.NoError(t, err)
		require.Len(t, reader.File, 1)
		assert.Equal(t, "5001.xml", reader.File[0].Name)

		rc, err := reader.File[0].Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, invoiceDoc, string(content))
	})

	t.Run("not found when every rung fails", func(t *testing.T) {
		client := new(anafmocks.MockClient)
		store := new(storagemocks.MockStorage)
		client.On("DownloadArtifact", mock.Anything, int64(9), "bare").Return(nil, errors.New("provider down"))

		bare := &model.Invoice{ExternalID: "bare"}
		_, err := NewRetriever(client, store, zap.NewNop()).Fetch(context.Background(), 9, bare)
		assert.ErrorIs(t, err, ErrArtifactNotFound)
	})
}

func TestSynthesizeArchiveRoundTrip(t *testing.T) {
	blob, err := SynthesizeArchive("abc", []byte(invoiceDoc))
	require.NoError(t, err)

	content, name, err := DataDocument(blob)
	require.NoError(t, err)
	assert.Equal(t, "abc.xml", name)
	assert.Equal(t, invoiceDoc, string(content))
}
