package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tienda-web/core"
	"tienda-web/designer"
	"tienda-web/notify"
	"tienda-web/schedule"

	"github.com/sirupsen/logrus"
)

// Events sent to the page.
const (
	EventDesignState  = "design:state"
	EventSurfaceState = "surface:state"
	EventDraftPending = "draft:pending"
	EventToast        = "toast"
	EventNavigate     = "navigate"
)

// backgroundTimeout bounds a template image fetch.
const backgroundTimeout = 10 * time.Second

// channel binds one socket to one customizer session.
type channel struct {
	connID  string
	session *designer.Session
	center  *notify.Center
	out     emitter
}

func openChannel(ctx context.Context, connID, visitorID string, deps Options, clock schedule.Clock, out emitter) (*channel, error) {
	center := notify.NewCenter(clock, notify.DefaultDuration)
	session, err := designer.NewSession(ctx, designer.Options{
		VisitorID: visitorID,
		Items:     deps.Items,
		Assets:    deps.Assets,
		Loader:    deps.Loader,
		Clock:     clock,
		Notifier:  center,
	})
	if err != nil {
		center.Close()
		return nil, err
	}

	c := &channel{connID: connID, session: session, center: center, out: out}
	center.Subscribe(func(toasts []notify.Toast) { c.emit(EventToast, toasts) })
	session.OnChange(func(d core.Design) { c.emit(EventDesignState, d) })

	c.emit(EventDesignState, session.Design())
	c.emitSurface()
	if draft := session.PendingDraft(); draft != nil {
		c.emit(EventDraftPending, draft)
	}
	return c, nil
}

func (c *channel) emit(event string, payload any) {
	if err := c.out.Emit(event, payload); err != nil {
		logrus.WithFields(logrus.Fields{"session_id": c.connID, "event": event}).WithError(err).Warn("Failed to emit event")
	}
}

func (c *channel) emitSurface() {
	c.emit(EventSurfaceState, c.session.Objects())
}

func (c *channel) close() {
	c.session.Close()
	c.center.Close()
}

// decodeArgs reads the first event argument into out.
func decodeArgs(args []any, out any) error {
	if len(args) == 0 || args[0] == nil {
		return nil
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

type (
	idArgs struct {
		ID string `json:"id"`
	}
	templateArgs struct {
		TemplateID string `json:"templateId"`
	}
	textArgs struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	updateArgs struct {
		ID    string             `json:"id"`
		Patch designer.TextPatch `json:"patch"`
	}
	colorArgs struct {
		Name string `json:"name"`
	}
	moveArgs struct {
		ID   string  `json:"id"`
		Left float64 `json:"left"`
		Top  float64 `json:"top"`
	}
)

type eventHandler func(c *channel, args []any) (map[string]any, error)

// events are the client events the designer channel accepts.
var events = map[string]eventHandler{
	"design:select-template": func(c *channel, args []any) (map[string]any, error) {
		var a templateArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		return nil, c.session.SelectTemplate(ctx, a.TemplateID)
	},
	"design:add-text": func(c *channel, args []any) (map[string]any, error) {
		var a textArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		overlay, err := c.session.AddText(a.Content)
		if err != nil {
			return nil, err
		}
		return map[string]any{"overlay": overlay}, nil
	},
	"design:update-text": func(c *channel, args []any) (map[string]any, error) {
		var a updateArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.UpdateText(a.ID, a.Patch)
	},
	"design:delete-text": func(c *channel, args []any) (map[string]any, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.DeleteText(a.ID)
	},
	"design:shirt-color": func(c *channel, args []any) (map[string]any, error) {
		var a colorArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.ChangeShirtColor(a.Name)
	},
	"design:reset": func(c *channel, args []any) (map[string]any, error) {
		return nil, c.session.Reset()
	},
	"surface:move": func(c *channel, args []any) (map[string]any, error) {
		var a moveArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		obj, err := c.session.Move(a.ID, a.Left, a.Top)
		if err != nil {
			return nil, err
		}
		return map[string]any{"object": obj}, nil
	},
	"surface:select": func(c *channel, args []any) (map[string]any, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.Select(a.ID)
	},
	"surface:release": func(c *channel, args []any) (map[string]any, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.Release(a.ID)
	},
	"surface:edit-begin": func(c *channel, args []any) (map[string]any, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.BeginEditing(a.ID)
	},
	"surface:edit-text": func(c *channel, args []any) (map[string]any, error) {
		var a textArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.EditText(a.ID, a.Content)
	},
	"surface:edit-end": func(c *channel, args []any) (map[string]any, error) {
		var a idArgs
		if err := decodeArgs(args, &a); err != nil {
			return nil, err
		}
		return nil, c.session.EndEditing(a.ID)
	},
	"draft:restore": func(c *channel, args []any) (map[string]any, error) {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		return nil, c.session.RestoreDraft(ctx)
	},
	"draft:discard": func(c *channel, args []any) (map[string]any, error) {
		return nil, c.session.DiscardDraft(context.Background())
	},
}

// dispatch runs one client event and answers it. The surface is re-sent
// after every event since gestures and design changes both move objects.
func (c *channel) dispatch(event string, datas []any) {
	handler, ok := events[event]
	if !ok {
		return
	}
	ack, args := extractAck(datas)
	result, err := handler(c, args)
	if err != nil {
		logrus.WithFields(logrus.Fields{"session_id": c.connID, "event": event}).WithError(err).Warn("Designer event failed")
	}
	respondWithAck(c.out, ack, event+":ack", ackPayload(result, err), err)
	c.emitSurface()
}
