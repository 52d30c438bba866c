package models

import (
	"fmt"
	"time"
)

// MaxFolderDepth bounds the folder hierarchy.
const MaxFolderDepth = 10

// Folder is a node in the file-area hierarchy with per-folder access roles.
type Folder struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID      *int64    `gorm:"index" json:"parent_id,omitempty"`
	Name          string    `gorm:"not null;size:64" json:"name"`
	Description   string    `gorm:"size:255" json:"description,omitempty"`
	MinReadRole   Role      `gorm:"not null;default:0" json:"min_read_role"`
	MinUploadRole Role      `gorm:"not null;default:1" json:"min_upload_role"`
	SortOrder     int       `gorm:"default:0" json:"sort_order"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Folder.
func (Folder) TableName() string {
	return "folders"
}

// CanRead reports whether the role may browse this folder.
func (f *Folder) CanRead(r Role) bool {
	return r.AtLeast(f.MinReadRole)
}

// CanUpload reports whether the role may upload into this folder.
func (f *Folder) CanUpload(r Role) bool {
	return r.AtLeast(f.MinUploadRole)
}

// Validate checks the folder for storable values.
func (f *Folder) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("folder name is required")
	}
	return nil
}

// File is a stored file entry. BlobKey names the payload in the blob
// store and is distinct from the display Filename.
type File struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FolderID      int64     `gorm:"index;not null" json:"folder_id"`
	Filename      string    `gorm:"not null;size:255" json:"filename"`
	BlobKey       string    `gorm:"uniqueIndex;not null;size:128" json:"blob_key"`
	Size          int64     `gorm:"not null;default:0" json:"size"`
	MimeType      string    `gorm:"size:128" json:"mime_type,omitempty"`
	UploaderID    int64     `gorm:"index;not null" json:"uploader_id"`
	DownloadCount int64     `gorm:"not null;default:0" json:"download_count"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for File.
func (File) TableName() string {
	return "files"
}
