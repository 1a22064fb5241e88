package websocket

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"tienda-web/core"
	"tienda-web/designer"
	"tienda-web/middleware"
	"tienda-web/schedule"
	"tienda-web/surface"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

type Options struct {
	Items    core.ItemStore
	Assets   *designer.Assets
	Loader   surface.Loader
	Sessions *designer.Registry
	// Origins are CORS patterns where "*" matches any run of characters.
	Origins []string
}

var localhostOrigin = regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)

func originPatterns(patterns []string) []any {
	origins := []any{localhostOrigin}
	for _, p := range patterns {
		quoted := strings.ReplaceAll(regexp.QuoteMeta(p), `\*`, `.*`)
		origins = append(origins, regexp.MustCompile("^"+quoted+"$"))
	}
	return origins
}

// visitorFromHeaders reads the visitor cookie from handshake headers.
func visitorFromHeaders(headers map[string][]string) string {
	h := http.Header{}
	for k, v := range headers {
		h[http.CanonicalHeaderKey(k)] = v
	}
	c, err := (&http.Request{Header: h}).Cookie(middleware.VisitorCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func SetupSocketIO(deps Options) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetCors(&types.Cors{
		Origin:      originPatterns(deps.Origins),
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}
		connID := string(socket.Id())
		log := logrus.WithField("session_id", connID)

		visitorID := visitorFromHeaders(socket.Handshake().Headers)
		if visitorID == "" {
			log.Warn("Designer connection without visitor cookie")
			_ = socket.Emit(EventNavigate, map[string]string{"to": "/designer"})
			socket.Disconnect(true)
			return
		}

		ch, err := openChannel(context.Background(), connID, visitorID, deps, schedule.Real, socket)
		if err != nil {
			log.WithError(err).Error("Failed to open designer session")
			_ = socket.Emit(EventNavigate, map[string]string{"to": "/"})
			socket.Disconnect(true)
			return
		}
		deps.Sessions.Add(connID, ch.session)
		log.WithField("visitor_id", visitorID).Info("Designer connected")

		for event := range events {
			event := event
			//nolint:errcheck // Socket.IO event handlers do not return useful errors
			socket.On(event, func(datas ...any) {
				ch.dispatch(event, datas)
			})
		}

		socket.On("disconnect", func(datas ...any) {
			deps.Sessions.Remove(connID)
			ch.close()
			log.Info("Designer disconnected")
			socket.RemoveAllListeners("")
		})
	})

	return srv
}
