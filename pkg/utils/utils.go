package utils

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/webp"
)

var (
	ErrNoFile        = errors.New("no file uploaded")
	ErrFileTooLarge  = errors.New("file size exceeds limit")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
	ErrDecodeImage   = errors.New("failed to decode image")
	ErrInvalidBase64 = errors.New("invalid base64 image data")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadFile(file multipart.File) ([]byte, error)
	DecodeBase64Image(data string) ([]byte, error)
	PrepareFrame(imageData []byte, size int) (*Frame, error)
}

// Frame is an image resized to the square model input and re-encoded as JPEG.
type Frame struct {
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// Digest is the hex SHA-256 of the encoded frame, used as a cache key.
func (f *Frame) Digest() string {
	sum := sha256.Sum256(f.Data)
	return hex.EncodeToString(sum[:])
}

type utils struct {
	maxFileSize int64
	jpegQuality int
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
		jpegQuality: 90,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}

	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	return nil
}

func (u *utils) ReadFile(file multipart.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(file, u.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// DecodeBase64Image accepts raw base64 or a data URL ("data:image/jpeg;base64,...").
func (u *utils) DecodeBase64Image(data string) ([]byte, error) {
	if i := strings.Index(data, ";base64,"); i >= 0 && strings.HasPrefix(data, "data:") {
		data = data[i+len(";base64,"):]
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(data))
	if err != nil {
		return nil, ErrInvalidBase64
	}
	if int64(len(decoded)) > u.maxFileSize {
		return nil, ErrFileTooLarge
	}
	return decoded, nil
}

// PrepareFrame decodes JPEG, PNG or WebP input, stretches it to size x size
// (the estimator input) and re-encodes it as JPEG.
func (u *utils) PrepareFrame(imageData []byte, size int) (*Frame, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid frame size %d", size)
	}

	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}

	bounds := img.Bounds()
	resized := imaging.Resize(img, size, size, imaging.Linear)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(u.jpegQuality)); err != nil {
		return nil, err
	}

	return &Frame{
		Data:         buf.Bytes(),
		Width:        size,
		Height:       size,
		SourceWidth:  bounds.Dx(),
		SourceHeight: bounds.Dy(),
	}, nil
}
