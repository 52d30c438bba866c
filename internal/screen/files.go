package screen

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runFiles walks the folder tree. Q ascends one level and leaves the
// area from the root; uploads need authentication and the folder's
// upload role.
func (n *Navigator) runFiles(sc *Context) (Result, error) {
	// Stack of visited folders; nil parent = root level.
	var stack []*models.Folder

	for {
		var current *models.Folder
		var parentID *int64
		if len(stack) > 0 {
			current = stack[len(stack)-1]
			parentID = &current.ID
		}

		folders, err := n.deps.Store.ListFolders(sc.ctx, parentID)
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}
		visible := folders[:0]
		for _, f := range folders {
			if f.CanRead(sc.Sess.Role()) {
				visible = append(visible, f)
			}
		}

		var files []*models.File
		if current != nil {
			files, _, err = n.deps.Store.ListFiles(sc.ctx, current.ID, store.Page{Limit: 100})
			if err != nil {
				return ResultBack, sc.SendLine(sc.T("common.opfailed"))
			}
		}

		title := sc.T("files.title")
		if current != nil {
			title = title + " - " + current.Name
		}
		if err := sc.SendLine(title); err != nil {
			return 0, err
		}
		if len(visible) == 0 && len(files) == 0 {
			if err := sc.SendLine(sc.T("common.empty")); err != nil {
				return 0, err
			}
		}
		for i, f := range visible {
			row := fmt.Sprintf("  %2d. %s%s  %s", i+1, f.Name, sc.T("files.foldersuffix"), f.Description)
			if err := sc.SendLine(row); err != nil {
				return 0, err
			}
		}
		for i, f := range files {
			row := fmt.Sprintf("  %2d. %s", len(visible)+i+1,
				sc.T("files.info", f.Filename, f.Size, f.DownloadCount))
			if err := sc.SendLine(row); err != nil {
				return 0, err
			}
		}

		canUpload := current != nil && sc.Sess.Authenticated() && current.CanUpload(sc.Sess.Role())
		if canUpload {
			if err := sc.SendLine(sc.T("files.upload")); err != nil {
				return 0, err
			}
		}

		line, err := sc.Prompt("common.listprompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		action, idx, other := parseListChoice(line)
		switch action {
		case listBack:
			if len(stack) == 0 {
				return ResultBack, nil
			}
			stack = stack[:len(stack)-1]
		case listPick:
			switch {
			case idx <= len(visible):
				stack = append(stack, visible[idx-1])
			case idx <= len(visible)+len(files):
				if err := n.runFileView(sc, files[idx-len(visible)-1]); err != nil {
					if errors.Is(err, errCancelled) {
						continue
					}
					return 0, err
				}
			default:
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
			}
		case listOther:
			if other == "u" {
				if current == nil {
					continue
				}
				if !canUpload {
					if err := sc.SendLine(sc.T("files.uploaddenied")); err != nil {
						return 0, err
					}
					continue
				}
				if err := n.uploadFile(sc, current); err != nil {
					if errors.Is(err, errCancelled) {
						continue
					}
					return 0, err
				}
			}
		}
	}
}

// runFileView shows a file's record and counts the view as a download.
// Binary transfer protocols are out of reach of a line session, so the
// blob key is what the caller gets.
func (n *Navigator) runFileView(sc *Context, f *models.File) error {
	if err := sc.SendLine(sc.T("files.info", f.Filename, f.Size, f.DownloadCount)); err != nil {
		return err
	}
	if err := sc.SendLine(sc.T("files.blobkey", f.BlobKey)); err != nil {
		return err
	}
	if err := sc.SendLine(sc.T("files.downloadhint")); err != nil {
		return err
	}
	if err := n.deps.Store.IncrementDownloadCount(sc.ctx, f.ID); err == nil {
		f.DownloadCount++
	}
	return nil
}

// uploadFile reads a text payload line by line and stores it: blob
// first, metadata second, blob removed again when the metadata insert
// fails.
func (n *Navigator) uploadFile(sc *Context, folder *models.Folder) error {
	name, err := sc.Prompt("files.uploadname")
	if err != nil {
		return err
	}
	if name = trimmed(name); name == "" {
		return errCancelled
	}

	body, err := sc.readMultiLine()
	if err != nil {
		return err
	}

	data := []byte(body)
	maxSize := int(n.deps.Config.Files.MaxUploadSize)
	if maxSize > 0 && len(data) > maxSize {
		if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
			return err
		}
		return errCancelled
	}

	key := uuid.NewString()
	if err := n.deps.Blobs.Put(sc.ctx, key, data); err != nil {
		logger.Error("blob write failed", logger.Err(err))
		return sc.SendLine(sc.T("common.opfailed"))
	}

	file := &models.File{
		FolderID:   folder.ID,
		Filename:   name,
		BlobKey:    key,
		Size:       int64(len(data)),
		MimeType:   "text/plain",
		UploaderID: sc.Sess.UserID(),
	}
	if err := n.deps.Store.CreateFile(sc.ctx, file); err != nil {
		if delErr := n.deps.Blobs.Delete(sc.ctx, key); delErr != nil {
			logger.Warn("orphaned blob after failed file insert",
				"blob_key", key, logger.Err(delErr))
		}
		return sc.SendLine(sc.T("common.opfailed"))
	}

	logger.Info("file uploaded",
		logger.SessionID(sc.Sess.ID),
		logger.UserID(sc.Sess.UserID()),
		"file_id", file.ID,
		"size", file.Size)
	return sc.SendLine(sc.T("files.uploaded", name, len(data)))
}
