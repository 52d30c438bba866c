package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// CreateFolder inserts a folder after checking the nesting depth of its
// parent chain.
func (s *GORMStore) CreateFolder(ctx context.Context, folder *models.Folder) error {
	if err := folder.Validate(); err != nil {
		return err
	}
	if folder.ParentID != nil {
		depth, err := s.folderDepth(ctx, *folder.ParentID)
		if err != nil {
			return err
		}
		if depth+1 >= models.MaxFolderDepth {
			return models.ErrFolderTooDeep
		}
	}
	return create(s.db, ctx, folder, models.NewValidationError("name", "already exists"))
}

// folderDepth walks the parent chain of the folder, root = depth 0.
func (s *GORMStore) folderDepth(ctx context.Context, id int64) (int, error) {
	depth := 0
	current := id
	for {
		folder, err := getByField[models.Folder](s.db, ctx, "id", current, models.ErrFolderNotFound)
		if err != nil {
			return 0, err
		}
		if folder.ParentID == nil {
			return depth, nil
		}
		depth++
		if depth >= models.MaxFolderDepth {
			return depth, nil
		}
		current = *folder.ParentID
	}
}

// GetFolder retrieves a folder by id.
func (s *GORMStore) GetFolder(ctx context.Context, id int64) (*models.Folder, error) {
	return getByField[models.Folder](s.db, ctx, "id", id, models.ErrFolderNotFound)
}

// ListFolders returns the children of parentID in sort order; nil
// parentID lists the root folders.
func (s *GORMStore) ListFolders(ctx context.Context, parentID *int64) ([]*models.Folder, error) {
	q := s.db.WithContext(ctx).Order("sort_order ASC, id ASC")
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}

	var folders []*models.Folder
	if err := q.Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFile records a file entry. The payload must already exist in
// the blob store under file.BlobKey.
func (s *GORMStore) CreateFile(ctx context.Context, file *models.File) error {
	if file.Filename == "" {
		return models.NewValidationError("filename", "is required")
	}
	if file.BlobKey == "" {
		return models.NewValidationError("blob_key", "is required")
	}
	if _, err := s.GetFolder(ctx, file.FolderID); err != nil {
		return err
	}
	return create(s.db, ctx, file, models.NewValidationError("blob_key", "already exists"))
}

// GetFile retrieves a file entry by id.
func (s *GORMStore) GetFile(ctx context.Context, id int64) (*models.File, error) {
	return getByField[models.File](s.db, ctx, "id", id, models.ErrFileNotFound)
}

// ListFiles returns one page of the folder's files, newest first.
func (s *GORMStore) ListFiles(ctx context.Context, folderID int64, page Page) ([]*models.File, int64, error) {
	return listPage[models.File](s.db, ctx, page, "created_at DESC, id DESC", "folder_id = ?", folderID)
}

// IncrementDownloadCount bumps the download counter atomically.
func (s *GORMStore) IncrementDownloadCount(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Model(&models.File{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrFileNotFound
	}
	return nil
}
