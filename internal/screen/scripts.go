package screen

import (
	"errors"
	"fmt"

	"github.com/hobbsbbs/hobbs/pkg/script"
)

// connWriter adapts the telnet conn to io.Writer for the script engine.
type connWriter struct {
	sc *Context
}

func (w connWriter) Write(p []byte) (int, error) {
	if err := w.sc.Conn.WriteRaw(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// runScripts lists the installed door scripts and hands selected ones to
// the engine. With the default disabled engine selection only reports
// that scripting is off.
func (n *Navigator) runScripts(sc *Context) (Result, error) {
	for {
		scripts, err := n.deps.Store.ListScripts(sc.ctx, true)
		if err != nil {
			return ResultBack, sc.SendLine(sc.T("common.opfailed"))
		}

		if err := sc.SendLine(sc.T("scripts.title")); err != nil {
			return 0, err
		}
		if len(scripts) == 0 {
			if err := sc.SendLine(sc.T("scripts.none")); err != nil {
				return 0, err
			}
			return ResultBack, nil
		}
		for i, s := range scripts {
			row := fmt.Sprintf("  %2d. %s", i+1, sc.T("scripts.info", s.Name, s.Description))
			if err := sc.SendLine(row); err != nil {
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

		action, idx, _ := parseListChoice(line)
		switch action {
		case listBack:
			return ResultBack, nil
		case listPick:
			if idx > len(scripts) {
				if err := sc.SendLine(sc.T("common.notfound")); err != nil {
					return 0, err
				}
				continue
			}
			s := scripts[idx-1]
			if !s.RunnableBy(sc.Sess.Role()) {
				if err := sc.SendLine(sc.T("common.denied")); err != nil {
					return 0, err
				}
				continue
			}
			err := n.deps.Engine.Run(sc.ctx, s.Path, sc.Conn, connWriter{sc})
			switch {
			case errors.Is(err, script.ErrEngineDisabled):
				if err := sc.SendLine(sc.T("scripts.disabled")); err != nil {
					return 0, err
				}
			case err != nil:
				if err := sc.SendLine(sc.T("common.opfailed")); err != nil {
					return 0, err
				}
			}
		}
	}
}
