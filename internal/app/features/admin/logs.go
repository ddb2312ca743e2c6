// internal/app/features/admin/logs.go
package admin

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	logstore "github.com/dalemusser/eventportal/internal/app/store/logs"
	"github.com/dalemusser/eventportal/internal/app/system/paging"
	"github.com/dalemusser/eventportal/internal/app/system/respond"
	"github.com/dalemusser/eventportal/internal/app/system/timeouts"
	"github.com/dalemusser/eventportal/internal/app/system/viewdata"
	"github.com/dalemusser/eventportal/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const logPageSize = 50

var (
	logActions     = []string{models.ActionCreate, models.ActionEdit, models.ActionDelete}
	logTargetTypes = []string{"announcement", "club", "event", "recruitment", "user"}
)

type logsData struct {
	viewdata.BaseVM
	Logs        []models.Log
	UserNames   map[string]string // by hex id
	Actions     []string
	TargetTypes []string
	Action      string
	TargetType  string
	Paging      paging.Result
	PageQuery   string
}

func oneOf(v string, allowed []string) string {
	for _, a := range allowed {
		if a == v {
			return v
		}
	}
	return ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /admin/logs                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogs lists audit entries newest first, filtered by ?action= and
// ?target=. Unknown filter values are ignored.
func (h *Handler) ServeLogs(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	filter := logstore.Filter{
		Action:     oneOf(strings.ToUpper(strings.TrimSpace(qs.Get("action"))), logActions),
		TargetType: oneOf(strings.ToLower(strings.TrimSpace(qs.Get("target"))), logTargetTypes),
	}
	page := 1
	if p, err := strconv.Atoi(qs.Get("page")); err == nil && p > 0 {
		page = p
	}

	ctx, cancel := timeouts.WithLong(r.Context())
	defer cancel()

	entries, pg, err := h.Logs.List(ctx, filter, paging.WithSize(page, logPageSize))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "admin: list logs", err, "Unable to load the activity log.", "/admin")
		return
	}
	if respond.WantsJSON(r) {
		respond.JSON(w, http.StatusOK, map[string]any{"logs": entries, "page": pg.Page, "hasNext": pg.HasNext})
		return
	}

	data := logsData{
		BaseVM:      viewdata.NewBaseVM(w, r, "Activity log", "/admin"),
		Logs:        entries,
		UserNames:   h.userNames(ctx, entries),
		Actions:     logActions,
		TargetTypes: logTargetTypes,
		Action:      filter.Action,
		TargetType:  filter.TargetType,
		Paging:      pg,
	}
	keep := url.Values{}
	if filter.Action != "" {
		keep.Set("action", filter.Action)
	}
	if filter.TargetType != "" {
		keep.Set("target", filter.TargetType)
	}
	if len(keep) > 0 {
		data.PageQuery = keep.Encode() + "&"
	}
	templates.Render(w, r, "admin_logs", data)
}

// recentLogs returns the newest n entries for the dashboard.
func (h *Handler) recentLogs(ctx context.Context, n int) ([]models.Log, error) {
	entries, _, err := h.Logs.List(ctx, logstore.Filter{}, paging.WithSize(1, n))
	return entries, err
}

// userNames resolves actors and affected users for display. Lookup
// failures leave names blank; entries keep the recorded actor name.
func (h *Handler) userNames(ctx context.Context, entries []models.Log) map[string]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if _, ok := seen[id]; !ok && !id.IsZero() {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, e := range entries {
		add(e.Actor)
		if e.AffectedUser != nil {
			add(*e.AffectedUser)
		}
	}

	names := make(map[string]string)
	if len(ids) == 0 {
		return names
	}
	users, err := h.Users.ListByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("admin: resolve log user names", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID.Hex()] = u.Username
	}
	return names
}
