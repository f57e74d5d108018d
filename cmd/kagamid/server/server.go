// Package server assembles the ops HTTP endpoint of the daemon:
// health, task snapshot and read-only object queries.
package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"

	"github.com/mikage-io/kagami/pkg/domain"
	"github.com/mikage-io/kagami/pkg/domain/cluster"
	"github.com/mikage-io/kagami/pkg/taskman"
	"github.com/mikage-io/kagami/pkg/utils/slices"
)

// Build assembles the echo server with all routes registered.
func Build(manager *taskman.Manager, pool *cluster.Pool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(glog.INFO)

	e.GET("/healthz", HealthHandler())
	e.GET("/api/tasks", TasksHandler(manager))
	e.GET("/api/objects", ObjectsHandler(pool))

	return e
}

func HealthHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}
}

type taskJSON struct {
	Name     string    `json:"name"`
	Since    time.Time `json:"since"`
	Restarts int       `json:"restarts"`
}

// TasksHandler reports the supervised tasks, same data as the console
// "tasks" command but machine-readable.
func TasksHandler(manager *taskman.Manager) echo.HandlerFunc {
	return func(c echo.Context) error {
		tasks := slices.Map(
			manager.CurrentTasks(),
			func(t taskman.TaskContext) taskJSON {
				return taskJSON{Name: t.Name, Since: t.Started, Restarts: t.Restarts}
			},
		)
		return c.JSON(http.StatusOK, tasks)
	}
}

type objectJSON struct {
	Cluster   string            `json:"cluster"`
	Group     string            `json:"group,omitempty"`
	Version   string            `json:"version"`
	Kind      string            `json:"kind"`
	Namespace string            `json:"namespace,omitempty"`
	Name      string            `json:"name"`
	UserID    string            `json:"userId,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Manifest  domain.Manifest   `json:"manifest"`
}

// ObjectsHandler queries mirrored objects.
//
// Query parameters: kind, group, version, namespace, cluster, user and
// label (repeatable, "key=value"). All optional; all AND conditions.
func ObjectsHandler(pool *cluster.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		filter := domain.ObjectFilter{
			Kind:      c.QueryParam("kind"),
			Group:     c.QueryParam("group"),
			Version:   c.QueryParam("version"),
			Namespace: c.QueryParam("namespace"),
			Cluster:   domain.ClusterID(c.QueryParam("cluster")),
			UserID:    c.QueryParam("user"),
		}
		for _, l := range c.QueryParams()["label"] {
			key, value, ok := strings.Cut(l, "=")
			if !ok {
				return echo.NewHTTPError(
					http.StatusBadRequest, "label should be key=value: "+l,
				)
			}
			if filter.LabelSelector == nil {
				filter.LabelSelector = map[string]string{}
			}
			filter.LabelSelector[key] = value
		}

		cur, err := pool.List(c.Request().Context(), filter)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		objects, err := domain.CollectCursor(cur)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}

		return c.JSON(http.StatusOK, slices.Map(objects, toJSON))
	}
}

func toJSON(o domain.Object) objectJSON {
	return objectJSON{
		Cluster:   string(o.Cluster),
		Group:     o.Group,
		Version:   o.Version,
		Kind:      o.Kind,
		Namespace: o.Namespace,
		Name:      o.Name,
		UserID:    o.UserID,
		Labels:    o.Manifest.Labels(),
		Manifest:  o.Manifest,
	}
}
