package server

import (
	"context"
	"sort"
	"strings"

	"github.com/kbukum/statekit/component"
	"github.com/kbukum/statekit/observability"
)

var _ component.Component = (*Component)(nil)

// Component runs a Server for the daemon lifecycle.
type Component struct {
	server *Server
}

func NewComponent(s *Server) *Component { return &Component{server: s} }

func (c *Component) Name() string { return "http-server" }

func (c *Component) Start(ctx context.Context) error { return c.server.Start(ctx) }

func (c *Component) Stop(ctx context.Context) error { return c.server.Stop(ctx) }

func (c *Component) Health(context.Context) observability.Health {
	h := observability.Health{Name: c.Name(), Status: observability.HealthStatusUp}
	if !c.server.listening() {
		h.Status = observability.HealthStatusDown
		h.Message = "not listening"
		return h
	}
	h.Details = map[string]string{"addr": c.server.Addr()}
	return h
}

// Route is one registered route for the startup summary.
type Route struct {
	Method  string
	Path    string
	Handler string
}

var systemPaths = map[string]bool{
	"/health": true,
	"/alive":  true,
}

// Routes lists registered routes: API routes by path, then system routes.
func (s *Server) Routes() []Route {
	ginRoutes := s.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys, jSys := systemPaths[ginRoutes[i].Path], systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, Route{Method: r.Method, Path: r.Path, Handler: handlerName(r.Handler)})
	}
	return routes
}

// handlerName trims Gin's handler path to "Type.Method" or the function name:
// "github.com/x/daemon.(*API).state-fm" becomes "API.state".
func handlerName(full string) string {
	name := strings.TrimSuffix(full, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	parts := strings.Split(name, ".")
	for len(parts) > 1 && strings.HasPrefix(parts[len(parts)-1], "func") {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 1 {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
