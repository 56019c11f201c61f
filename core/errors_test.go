package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(AssetOperationFailed, "upload", nil))

	base := fmt.Errorf("uploading a.mp4: %w", ErrUploadTooLarge)
	err := Classify(AssetOperationFailed, "upload", base)

	assert.True(t, IsAssetOperationFailed(err))
	assert.False(t, IsParseRecoverable(err))
	assert.False(t, IsReferenceUnresolvable(err))
	assert.ErrorIs(t, err, ErrUploadTooLarge)
	assert.Equal(t, "asset_operation_failed: upload: uploading a.mp4: upload exceeds size limit", err.Error())

	wrapped := fmt.Errorf("saving draft: %w", err)
	assert.True(t, IsAssetOperationFailed(wrapped), "class survives further wrapping")
	assert.False(t, IsAssetOperationFailed(errors.New("plain")))
}

func TestErrorClassString(t *testing.T) {
	tests := []struct {
		class ErrorClass
		want  string
	}{
		{ParseRecoverable, "parse_recoverable"},
		{AssetOperationFailed, "asset_operation_failed"},
		{ReferenceUnresolvable, "reference_unresolvable"},
		{ErrorClass(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.class.String())
		})
	}
}

func TestParseMediaKind(t *testing.T) {
	assert.Equal(t, KindVideo, ParseMediaKind(" Video "))
	assert.Equal(t, KindFile, ParseMediaKind("file"))
	assert.Equal(t, KindNone, ParseMediaKind("gif"))
	assert.Equal(t, KindNone, ParseMediaKind(""))
}

func TestMediaReferenceResolvable(t *testing.T) {
	for _, u := range []string{"", "  ", "undefined", "null"} {
		assert.False(t, MediaReference{URL: u}.Resolvable(), "%q", u)
	}
	assert.True(t, MediaReference{URL: "/uploads/1/a.png"}.Resolvable())
}

func TestDefaultPlaceholderPolicy(t *testing.T) {
	p := DefaultPlaceholderPolicy()
	assert.NotContains(t, p, KindImage, "images stay visible on feed cards")
	assert.Equal(t, "[View post to see video content]", p[KindVideo].Caption)
	assert.Equal(t, "[View post to see attached files]", p[KindFile].Caption)
}
