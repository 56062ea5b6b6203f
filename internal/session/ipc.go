package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/anand-san/murmur/internal/ipc"
)

// Handle serves control-plane commands forwarded by `murmur press|release|status`.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.statusResponse("status")
	case "press":
		if req.Shortcut == "" {
			return c.errorResponse(errors.New("press requires a shortcut"))
		}
		if err := c.Press(ctx, req.Shortcut); err != nil {
			return c.errorResponse(err)
		}
		return c.statusResponse("pressed " + req.Shortcut)
	case "release":
		if req.Shortcut == "" {
			return c.errorResponse(errors.New("release requires a shortcut"))
		}
		c.Release(req.Shortcut)
		return c.statusResponse("released " + req.Shortcut)
	default:
		return c.errorResponse(fmt.Errorf("unknown command: %s", req.Command))
	}
}

func (c *Controller) statusResponse(message string) ipc.Response {
	st := c.Status()
	return ipc.Response{
		OK:        true,
		State:     string(st.State),
		SessionID: st.SessionID,
		Shortcut:  st.Shortcut,
		Message:   message,
	}
}

func (c *Controller) errorResponse(err error) ipc.Response {
	return ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
}
