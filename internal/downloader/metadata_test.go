package downloader

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_Unmarshal(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(tiktokDump), &m))

	assert.Equal(t, "cat video", m.Title)
	assert.Equal(t, 15.2, m.Duration)
	assert.Equal(t, int64(1200), m.ViewCount)
	assert.Equal(t, "20240105", m.UploadDate)
	assert.Equal(t, "cat video", m.Raw["title"])
	assert.Contains(t, m.Raw, "formats")
}

func TestMetadata_NullFields(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","view_count":null,"tags":null,"uploader":null,"uploader_id":"u1"}`), &m))

	assert.Zero(t, m.ViewCount)
	assert.Nil(t, m.Tags)
	assert.Equal(t, "u1", m.CreatorUsername())
}

func TestMetadata_StrippedRaw(t *testing.T) {
	var m Metadata
	require.NoError(t, json.Unmarshal([]byte(tiktokDump), &m))

	stripped := m.StrippedRaw()
	for _, k := range strippedKeys {
		assert.NotContains(t, stripped, k)
	}
	assert.Equal(t, "catlover", stripped["uploader"])

	// the original map is untouched
	assert.Contains(t, m.Raw, "formats")
}

func TestMetadata_StrippedRawWithoutRaw(t *testing.T) {
	m := Metadata{ID: "x", Title: "t"}

	stripped := m.StrippedRaw()
	assert.Equal(t, "x", stripped["id"])
	assert.Equal(t, "t", stripped["title"])
}

func TestMetadata_Size(t *testing.T) {
	assert.Equal(t, int64(10), (&Metadata{Filesize: 10, FilesizeApprox: 99}).Size())
	assert.Equal(t, int64(99), (&Metadata{FilesizeApprox: 99.6}).Size())
}
