package screen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hobbsbbs/hobbs/internal/logger"
	"github.com/hobbsbbs/hobbs/pkg/store"
	"github.com/hobbsbbs/hobbs/pkg/store/models"
)

// runAdmin is the staff area. The main menu gates entry on RequireAdmin;
// sub-screens re-check per operation since SubOp and SysOp differ.
func (n *Navigator) runAdmin(sc *Context) (Result, error) {
	if err := models.RequireAdmin(sc.Sess.User); err != nil {
		return ResultBack, sc.SendLine(sc.T("common.denied"))
	}

	for {
		if err := sc.SendLine(sc.T("admin.title")); err != nil {
			return 0, err
		}

		line, err := sc.Prompt("admin.prompt")
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		switch choice(line) {
		case "q", "":
			return ResultBack, nil
		case "s":
			if err := n.adminSessions(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
		case "u":
			if err := n.adminUsers(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
		case "b":
			if err := n.adminBoards(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
		case "f":
			if err := n.adminFeeds(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return 0, err
			}
		}
	}
}

// adminSessions lists live sessions and flags one for disconnect. Ids
// match on unambiguous prefixes so nobody types a full UUID.
func (n *Navigator) adminSessions(sc *Context) error {
	snaps := n.deps.Registry.Enumerate()

	if err := sc.SendLine(sc.T("admin.sessionstitle")); err != nil {
		return err
	}
	for _, s := range snaps {
		who := s.Username
		if who == "" {
			if s.IsGuest {
				who = "guest"
			} else {
				who = "-"
			}
		}
		row := fmt.Sprintf(sc.T("admin.sessionfmt"),
			s.ID[:8], s.PeerAddr, who, s.State.String(), sc.when(s.ConnectedAt))
		if err := sc.SendLine(row); err != nil {
			return err
		}
	}

	line, err := sc.Prompt("admin.disconnectprompt")
	if err != nil {
		return err
	}
	prefix := trimmed(line)
	if prefix == "" {
		return nil
	}

	var match string
	for _, s := range snaps {
		if strings.HasPrefix(s.ID, prefix) {
			if match != "" {
				match = ""
				break
			}
			match = s.ID
		}
	}
	if match == "" || !n.deps.Registry.ForceDisconnect(match) {
		return sc.SendLine(sc.T("admin.nosession"))
	}
	logger.Info("session flagged for disconnect",
		logger.SessionID(match),
		"admin_id", sc.Sess.UserID())
	return sc.SendLine(sc.T("admin.disconnected"))
}

// adminUsers pages through all accounts and opens the per-user editor.
func (n *Navigator) adminUsers(sc *Context) error {
	offset := 0
	for {
		size := sc.pageSize()
		users, total, err := n.deps.Store.ListUsers(sc.ctx, store.Page{Limit: size, Offset: offset})
		if err != nil {
			return sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("admin.userstitle")); err != nil {
			return err
		}
		if err := sc.SendLine(sc.T("common.page", offset/size+1, pageCount(total, size))); err != nil {
			return err
		}
		for i, u := range users {
			active := ""
			if !u.IsActive {
				active = "  [disabled]"
			}
			row := fmt.Sprintf("  %2d. %-16s %-8s%s", i+1, u.Username, u.Role, active)
			if err := sc.SendLine(row); err != nil {
				return err
			}
		}

		line, err := sc.Prompt("admin.userprompt")
		if err != nil {
			return err
		}

		action, idx, _ := parseListChoice(line)
		switch action {
		case listBack:
			return nil
		case listNext:
			if offset+size < int(total) {
				offset += size
			}
		case listPrev:
			offset = max(0, offset-size)
		case listPick:
			if idx > len(users) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return err
				}
				continue
			}
			if err := n.adminEditUser(sc, users[idx-1]); err != nil {
				return err
			}
		}
	}
}

// adminEditUser changes one account's role or active flag. The store
// re-checks the last-SysOp invariant inside its transaction; the
// messages here just translate the sentinel errors.
func (n *Navigator) adminEditUser(sc *Context, target *models.User) error {
	for {
		if err := sc.SendLine(fmt.Sprintf("%s (%s)  active=%t", target.Username, target.Role, target.IsActive)); err != nil {
			return err
		}

		line, err := sc.Prompt("admin.useredit")
		if err != nil {
			return err
		}

		switch choice(line) {
		case "q", "":
			return nil
		case "r":
			roleLine, err := sc.Prompt("admin.roleprompt")
			if err != nil {
				return err
			}
			newRole, err := models.ParseRole(trimmed(roleLine))
			if err != nil {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return err
				}
				continue
			}
			if err := models.ValidateRoleChange(sc.Sess.User, target, newRole); err != nil {
				if err := sc.SendLine(n.adminErrorKey(sc, err)); err != nil {
					return err
				}
				continue
			}
			if err := n.deps.Store.ChangeRole(sc.ctx, target.ID, newRole); err != nil {
				if err := sc.SendLine(n.adminErrorKey(sc, err)); err != nil {
					return err
				}
				continue
			}
			target.Role = newRole
			logger.Info("role changed",
				"admin_id", sc.Sess.UserID(),
				"target_id", target.ID,
				"role", newRole.String())
			if err := sc.SendLine(sc.T("admin.rolechanged")); err != nil {
				return err
			}
		case "a":
			if err := models.CanEditUser(sc.Sess.User, target); err != nil {
				if err := sc.SendLine(sc.T("common.denied")); err != nil {
					return err
				}
				continue
			}
			newActive := !target.IsActive
			if err := n.deps.Store.SetUserActive(sc.ctx, target.ID, newActive); err != nil {
				if err := sc.SendLine(n.adminErrorKey(sc, err)); err != nil {
					return err
				}
				continue
			}
			target.IsActive = newActive
			key := "admin.deactivated"
			if newActive {
				key = "admin.activated"
			}
			if err := sc.SendLine(sc.T(key)); err != nil {
				return err
			}
		}
	}
}

// adminErrorKey maps admin-operation sentinels to their localized lines.
func (n *Navigator) adminErrorKey(sc *Context, err error) string {
	switch {
	case errors.Is(err, models.ErrLastSysOp):
		return sc.T("admin.lastsysop")
	case errors.Is(err, models.ErrCannotModifySelf):
		return sc.T("admin.cannotself")
	case errors.Is(err, models.ErrPermissionDenied):
		return sc.T("common.denied")
	default:
		return sc.T("common.opfailed")
	}
}

// adminBoards creates boards and toggles their visibility.
func (n *Navigator) adminBoards(sc *Context) error {
	for {
		boards, err := n.deps.Store.ListBoards(sc.ctx, true)
		if err != nil {
			return sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("admin.boardstitle")); err != nil {
			return err
		}
		for i, b := range boards {
			active := ""
			if !b.IsActive {
				active = "  [inactive]"
			}
			row := fmt.Sprintf("  %2d. %-20s %-6s%s", i+1, b.Name, b.BoardType, active)
			if err := sc.SendLine(row); err != nil {
				return err
			}
		}

		line, err := sc.Prompt("admin.boardprompt")
		if err != nil {
			return err
		}

		action, idx, other := parseListChoice(line)
		switch action {
		case listBack:
			return nil
		case listPick:
			if idx > len(boards) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return err
				}
				continue
			}
			if err := n.adminEditBoard(sc, boards[idx-1]); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return err
			}
		case listOther:
			if other != "c" {
				continue
			}
			if err := n.adminCreateBoard(sc); err != nil {
				if errors.Is(err, errCancelled) {
					continue
				}
				return err
			}
		}
	}
}

// adminEditBoard changes one board's name, description, role gates or
// active flag through partial updates.
func (n *Navigator) adminEditBoard(sc *Context, b *models.Board) error {
	for {
		header := fmt.Sprintf("%s (%s)  read>=%s write>=%s  active=%t",
			b.Name, b.BoardType, b.MinReadRole, b.MinWriteRole, b.IsActive)
		if err := sc.SendLine(header); err != nil {
			return err
		}

		line, err := sc.Prompt("admin.boardedit")
		if err != nil {
			return err
		}

		var update models.BoardUpdate
		switch choice(line) {
		case "q", "":
			return nil
		case "n":
			name, err := sc.Prompt("admin.boardname")
			if err != nil {
				return err
			}
			if name = trimmed(name); name == "" {
				continue
			}
			update.Name = &name
		case "d":
			desc, err := sc.Prompt("admin.boarddesc")
			if err != nil {
				return err
			}
			trimmedDesc := trimmed(desc)
			update.Description = &trimmedDesc
		case "r":
			role, err := n.promptRole(sc)
			if err != nil {
				return err
			}
			if role == nil {
				continue
			}
			update.MinReadRole = role
		case "w":
			role, err := n.promptRole(sc)
			if err != nil {
				return err
			}
			if role == nil {
				continue
			}
			update.MinWriteRole = role
		case "a":
			newActive := !b.IsActive
			update.IsActive = &newActive
		default:
			continue
		}

		if err := n.deps.Store.UpdateBoard(sc.ctx, b.ID, update); err != nil {
			if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
				return err
			}
			continue
		}
		b.ApplyUpdate(update)
		if err := sc.SendLine(sc.T("admin.boardupdated")); err != nil {
			return err
		}
	}
}

// promptRoleDefault reads a role name with an empty-input default,
// re-prompting on bad names.
func (n *Navigator) promptRoleDefault(sc *Context, key string, def models.Role) (models.Role, error) {
	for {
		line, err := sc.Prompt(key)
		if err != nil {
			return 0, err
		}
		if trimmed(line) == "" {
			return def, nil
		}
		role, err := models.ParseRole(trimmed(line))
		if err != nil {
			if err := sc.SendLine(sc.T("common.notfound")); err != nil {
				return 0, err
			}
			continue
		}
		return role, nil
	}
}

// promptRole reads a role name; a bad name reports and returns nil.
func (n *Navigator) promptRole(sc *Context) (*models.Role, error) {
	line, err := sc.Prompt("admin.roleprompt")
	if err != nil {
		return nil, err
	}
	role, err := models.ParseRole(trimmed(line))
	if err != nil {
		if err := sc.SendLine(sc.T("common.notfound")); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &role, nil
}

func (n *Navigator) adminCreateBoard(sc *Context) error {
	name, err := sc.Prompt("admin.boardname")
	if err != nil {
		return err
	}
	if name = trimmed(name); name == "" {
		return errCancelled
	}
	desc, err := sc.Prompt("admin.boarddesc")
	if err != nil {
		return err
	}
	typeLine, err := sc.Prompt("admin.boardtype")
	if err != nil {
		return err
	}
	boardType := models.BoardType(trimmed(typeLine))
	if boardType == "" {
		boardType = models.BoardTypeThread
	}
	if !boardType.IsValid() {
		return sc.SendLine(sc.T("common.opfailed"))
	}

	readRole, err := n.promptRoleDefault(sc, "admin.boardreadrole", models.RoleGuest)
	if err != nil {
		return err
	}
	writeRole, err := n.promptRoleDefault(sc, "admin.boardwriterole", models.RoleMember)
	if err != nil {
		return err
	}

	board := &models.Board{
		Name:         name,
		Description:  trimmed(desc),
		BoardType:    boardType,
		MinReadRole:  readRole,
		MinWriteRole: writeRole,
	}
	if err := n.deps.Store.CreateBoard(sc.ctx, board); err != nil {
		return sc.SendLine(sc.T("common.opfailed"))
	}
	logger.Info("board created",
		"admin_id", sc.Sess.UserID(), logger.KeyBoardID, board.ID)
	return sc.SendLine(sc.T("admin.boardcreated"))
}

// adminFeeds adds feeds and toggles their polling.
func (n *Navigator) adminFeeds(sc *Context) error {
	for {
		feeds, err := n.deps.Store.ListFeeds(sc.ctx, false)
		if err != nil {
			return sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("admin.feedstitle")); err != nil {
			return err
		}
		for i, f := range feeds {
			active := ""
			if !f.IsActive {
				active = "  [inactive]"
			}
			row := fmt.Sprintf("  %2d. %-32s %s%s", i+1, f.Title, f.URL, active)
			if err := sc.SendLine(row); err != nil {
				return err
			}
		}

		line, err := sc.Prompt("admin.feedprompt")
		if err != nil {
			return err
		}

		action, idx, other := parseListChoice(line)
		switch action {
		case listBack:
			return nil
		case listPick:
			if idx > len(feeds) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return err
				}
				continue
			}
			f := feeds[idx-1]
			if err := n.deps.Store.SetFeedActive(sc.ctx, f.ID, !f.IsActive); err != nil {
				if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
					return err
				}
			}
		case listOther:
			if other != "a" {
				continue
			}
			title, err := sc.Prompt("admin.feedtitle")
			if err != nil {
				return err
			}
			if title = trimmed(title); title == "" {
				continue
			}
			url, err := sc.Prompt("admin.feedurl")
			if err != nil {
				return err
			}
			if url = trimmed(url); url == "" {
				continue
			}
			if err := n.deps.Store.CreateFeed(sc.ctx, &models.RSSFeed{Title: title, URL: url}); err != nil {
				if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
					return err
				}
				continue
			}
			if err := sc.SendLine(sc.T("admin.feedadded")); err != nil {
				return err
			}
		}
	}
}
