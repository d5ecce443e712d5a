package toolerr

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "AccessDenied", AccessDenied.String())
	assert.Equal(t, "UnknownOperation", UnknownOperation.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())

	text, err := TooLarge.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "TooLarge", string(text))
}

func TestKindHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		AccessDenied:     http.StatusForbidden,
		InvalidArgument:  http.StatusBadRequest,
		NotFound:         http.StatusNotFound,
		TooLarge:         http.StatusRequestEntityTooLarge,
		UnknownOperation: http.StatusNotFound,
		IOError:          http.StatusInternalServerError,
		Internal:         http.StatusInternalServerError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(AccessDenied, "read", "/etc/passwd", "access denied - path outside allowed directories")
	assert.Equal(t, "access denied - path outside allowed directories: /etc/passwd", err.Error())

	wrapped := Wrap(IOError, "write", "", errors.New("disk full"))
	assert.Equal(t, "disk full", wrapped.Error())

	bare := &Error{Kind: NotFound}
	assert.Equal(t, "NotFound", bare.Error())
}

func TestErrorIs(t *testing.T) {
	err := Newf(TooLarge, "read", "/p/big", "file too large (%d bytes)", 11)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NotErrorIs(t, err, ErrNotFound)

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrTooLarge)
	assert.Equal(t, TooLarge, KindOf(wrapped))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Classify("read", "/x", nil))
	})

	t.Run("not exist maps to NotFound", func(t *testing.T) {
		_, statErr := os.Stat("/definitely/not/here")
		got := Classify("stat", "/definitely/not/here", statErr)
		require.NotNil(t, got)
		assert.Equal(t, NotFound, got.Kind)
		assert.ErrorIs(t, got, fs.ErrNotExist)
	})

	t.Run("permission maps to IOError", func(t *testing.T) {
		got := Classify("write", "/x", &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrPermission})
		assert.Equal(t, IOError, got.Kind)
	})

	t.Run("classified error passes through and gains context", func(t *testing.T) {
		orig := New(AccessDenied, "", "", "denied")
		got := Classify("delete", "/x", orig)
		assert.Equal(t, AccessDenied, got.Kind)
		assert.Equal(t, "delete", got.Op)
		assert.Equal(t, "/x", got.Path)
		assert.Empty(t, orig.Op, "original must not be mutated")
	})
}

func TestFormat(t *testing.T) {
	err := New(AccessDenied, "read", "/etc/passwd", "access denied - path outside allowed directories")
	assert.Equal(t, "AccessDenied: access denied - path outside allowed directories: /etc/passwd", Format(err))
	assert.Equal(t, "Internal: boom", Format(errors.New("boom")))
}
