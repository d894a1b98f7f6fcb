package storage

import (
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	cli, err := minio.New("minio.local:9000", &minio.Options{
		Creds: credentials.NewStaticV4("access", "secret", ""),
	})
	require.NoError(t, err)

	s := &Store{client: cli, bucketName: "slim-leaderboard"}
	assert.Equal(t, "http://minio.local:9000/slim-leaderboard/runs/2026/10/15/abc.md", s.ObjectURL("runs/2026/10/15/abc.md"))
}
