package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// uploadMeta is the JSON sidecar written to uploads/meta/<file_id>.json
// alongside each stored upload (spec §6 "Persisted state layout").
type uploadMeta struct {
	FileID     string    `json:"file_id"`
	ProjectID  string    `json:"project_id"`
	Bucket     string    `json:"bucket"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// uploadedFile is one entry of POST /files/upload's `{files[]}` response.
type uploadedFile struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// postFilesUpload handles POST /files/upload (multipart): stores every
// part under this project's workdir (spec §6's "Stores under workdir").
func (s *Server) postFilesUpload(c *gin.Context) {
	projectID := c.PostForm("project_id")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
		return
	}
	bucket := c.DefaultPostForm("bucket", "default")

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	workdir := s.projectWorkdir(projectID)
	bucketDir := filepath.Join(workdir, "uploads", sanitizeProjectSegment(bucket))
	metaDir := filepath.Join(workdir, "uploads", "meta")
	if err := os.MkdirAll(bucketDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not prepare upload directory"})
		return
	}
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not prepare upload directory"})
		return
	}

	out := make([]uploadedFile, 0, len(parts))
	for _, part := range parts {
		fileID := uuid.NewString()
		dest := filepath.Join(bucketDir, fileID+"_"+sanitizePathSegment(part.Filename))
		if err := c.SaveUploadedFile(part, dest); err != nil {
			s.logger.Warn("upload save failed", "project_id", projectID, "filename", part.Filename, "error", err)
			continue
		}

		meta := uploadMeta{
			FileID:     fileID,
			ProjectID:  projectID,
			Bucket:     bucket,
			Filename:   part.Filename,
			Size:       part.Size,
			UploadedAt: time.Now(),
		}
		if data, err := json.Marshal(meta); err == nil {
			_ = os.WriteFile(filepath.Join(metaDir, fileID+".json"), data, 0o644)
		}

		out = append(out, uploadedFile{FileID: fileID, Filename: part.Filename, Size: part.Size})
	}

	c.JSON(http.StatusOK, gin.H{"files": out})
}

// getFile handles GET /files/:project_id/:file_id: resolves the upload
// metadata sidecar to find the stored path and serves it.
func (s *Server) getFile(c *gin.Context) {
	projectID := c.Param("project_id")
	fileID := c.Param("file_id")

	workdir := s.projectWorkdir(projectID)
	metaPath := filepath.Join(workdir, "uploads", "meta", fileID+".json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}

	var meta uploadMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "corrupt upload metadata"})
		return
	}

	bucketDir := filepath.Join(workdir, "uploads", sanitizeProjectSegment(meta.Bucket))
	entries, err := os.ReadDir(bucketDir)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	prefix := fileID + "_"
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), prefix) {
			c.FileAttachment(filepath.Join(bucketDir, e.Name()), meta.Filename)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
}

// getGeneratedFile handles GET /files/generated/:project_id/download:
// serves an artifact by its path relative to the project workdir, the
// same relative path artifacts.Detector.contentURL encodes. The
// resolved path is constrained to stay inside the workdir .
func (s *Server) getGeneratedFile(c *gin.Context) {
	projectID := c.Param("project_id")
	rel := c.Query("path")
	if rel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	workdir := s.projectWorkdir(projectID)
	resolved := filepath.Clean(filepath.Join(workdir, rel))
	if resolved != workdir && !strings.HasPrefix(resolved, workdir+string(filepath.Separator)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "path escapes project workdir"})
		return
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.File(resolved)
}

// projectWorkdir mirrors runloop's own workdir sandboxing
// () so the HTTP layer resolves upload/download
// paths against the exact same per-project directory a turn writes
// artifacts into.
func (s *Server) projectWorkdir(projectID string) string {
	return filepath.Join(s.system.Workdir, sanitizeProjectSegment(projectID))
}

// sanitizeProjectSegment mirrors runloop's sanitizeProjectID exactly:
// letters, digits, '-', '_' only, so a project_id/bucket can never
// inject a path-traversal segment via '.' or '/'.
func sanitizeProjectSegment(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// sanitizePathSegment is used for filenames, where a literal '.'
// (extension separator) is legitimate; '/' and other separators are
// still folded to '_' so a crafted filename can't escape its directory.
func sanitizePathSegment(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
