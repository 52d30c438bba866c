package screen

import (
	"errors"
	"strings"

	"github.com/hobbsbbs/hobbs/internal/chat"
	"github.com/hobbsbbs/hobbs/internal/linebuf"
	"github.com/hobbsbbs/hobbs/internal/logger"
)

// runChat joins a room and relays until /leave. A forwarder goroutine
// drains the member channel onto the wire while the worker blocks in
// reads; the session encoding and output mode are not mutated while the
// forwarder lives, which keeps the concurrent writes safe.
func (n *Navigator) runChat(sc *Context) (Result, error) {
	line, err := sc.Prompt("chat.roomprompt")
	if err != nil {
		if errors.Is(err, errCancelled) {
			return ResultBack, nil
		}
		return 0, err
	}
	room := trimmed(line)
	if room == "" {
		room = "lobby"
	}

	name := sc.Sess.Username()
	if name == "" {
		name = "guest-" + sc.Sess.ID[:8]
	}

	member, replay := n.deps.Chat.Join(room, name)
	defer member.Leave()

	logger.Info("joined chat room",
		logger.SessionID(sc.Sess.ID), "room", room, logger.Username(name))

	if err := sc.SendLine(sc.T("chat.help")); err != nil {
		return 0, err
	}
	for _, msg := range replay {
		if err := sc.SendLine(n.formatChatMessage(sc, msg)); err != nil {
			return 0, err
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case msg := <-member.C:
				_ = sc.Conn.WriteText(n.formatChatMessage(sc, msg) + "\r\n")
			case <-done:
				return
			}
		}
	}()

	for {
		input, err := sc.ReadLine(linebuf.EchoNormal)
		if err != nil {
			if errors.Is(err, errCancelled) {
				return ResultBack, nil
			}
			return 0, err
		}

		switch {
		case input == "/leave":
			return ResultBack, nil
		case input == "/who":
			who := n.deps.Chat.Who(room)
			if err := sc.SendLine(sc.T("chat.who", strings.Join(who, ", "))); err != nil {
				return 0, err
			}
		case strings.TrimSpace(input) == "":
			// Empty lines are not said.
		default:
			n.deps.Chat.Say(room, name, input)
			n.deps.Metrics.RecordChatMessage()
		}
	}
}

// formatChatMessage localizes a room message. Join and leave notices are
// recognized by their canonical text.
func (n *Navigator) formatChatMessage(sc *Context, msg chat.Message) string {
	if msg.Notice {
		if msg.Text == "left the room" {
			return sc.T("chat.left", msg.Username)
		}
		return sc.T("chat.joined", msg.Username, msg.Room)
	}
	return sc.T("chat.say", msg.Username, msg.Text)
}
