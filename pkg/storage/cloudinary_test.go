package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicIDFromURL(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1712345/hub/avatars/123-me.webp": "hub/avatars/123-me",
		"https://res.cloudinary.com/demo/image/upload/hub/avatars/pic.png":              "hub/avatars/pic",
		"https://res.cloudinary.com/demo/image/upload/videos/clip.webp":                 "videos/clip",
		"https://res.cloudinary.com/demo/image/upload/":                                 "",
		"https://example.com/static/avatar.png":                                         "",
		"://bad":                                                                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, PublicIDFromURL(in), in)
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_photo_1", sanitizeName("My Photo 1"))
	assert.Equal(t, "image", sanitizeName(""))
}

func TestNewCloudinaryStorageRequiresCredentials(t *testing.T) {
	_, err := NewCloudinaryStorage(CloudinaryConfig{})
	require.Error(t, err)

	s, err := NewCloudinaryStorage(CloudinaryConfig{CloudName: "demo", APIKey: "key", APISecret: "secret"})
	require.NoError(t, err)
	assert.NotNil(t, s)
}
