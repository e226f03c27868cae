package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cost-sage/internal/dto"
	"cost-sage/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var safeExt = regexp.MustCompile(`^\.[a-zA-Z0-9]{1,10}$`)

type UploadService struct {
	uploadDir string
	maxBytes  int64
	logger    *zap.Logger
}

func NewUploadService(uploadDir string, maxBytes int64, logger *zap.Logger) (*UploadService, error) {
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &UploadService{
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		logger:    logger,
	}, nil
}

// Save stores the file under a fresh uuid name, keeping the original
// extension, and returns the public URL it is served at.
func (s *UploadService) Save(ctx context.Context, identity *models.Identity, file io.Reader, fileName, contentType string) (*dto.UploadResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(fileName) == "" {
		return nil, &ValidationError{Message: "No file uploaded", Fields: map[string]string{"file": "required"}}
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(fileName)))
	if !safeExt.MatchString(ext) {
		ext = ""
	}
	newFileName := uuid.New().String() + ext
	filePath := filepath.Join(s.uploadDir, newFileName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	src := file
	if s.maxBytes > 0 {
		src = io.LimitReader(file, s.maxBytes+1)
	}
	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		os.Remove(filePath)
		return nil, &ValidationError{Message: "File too large", Fields: map[string]string{"file": fmt.Sprintf("max=%d", s.maxBytes)}}
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	s.logger.Info("File uploaded",
		zap.String("user_id", identity.UserID.String()),
		zap.String("file", newFileName),
		zap.Int64("size", size),
	)

	return &dto.UploadResponse{
		Message:  "File uploaded successfully",
		FileURL:  "/uploads/" + newFileName,
		Filename: filepath.Base(fileName),
		Type:     contentType,
		Size:     size,
	}, nil
}
